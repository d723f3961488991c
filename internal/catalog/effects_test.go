package catalog

import "testing"

func TestParseEffect(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Effect
	}{
		{
			name: "first of day resource",
			text: "Your first build action of the day gives +2 twigs",
			want: Effect{Kind: EffectFirstOfDayResource, Tag: "build", Amount: 2, Resource: "twigs"},
		},
		{
			name: "first of day bonus actions",
			text: "Your first sing action of the day gives +1 bonus actions",
			want: Effect{Kind: EffectFirstOfDayResource, Tag: "sing", Amount: 1, Resource: "bonus actions"},
		},
		{
			name: "song bonus",
			text: "All your songs give +2 bonus actions to the target",
			want: Effect{Kind: EffectSongBonus, Amount: 2},
		},
		{
			name: "first more effective",
			text: "All your first swoop actions are +50% more effective",
			want: Effect{Kind: EffectFirstMoreEffective, Tag: "swoop", Percent: 50},
		},
		{
			name: "less brood",
			text: "+25% chance of your eggs needing one less brood",
			want: Effect{Kind: EffectLessBrood, Percent: 25},
		},
		{
			name: "extra bird",
			text: "+10% chance of your eggs hatching an extra bird",
			want: Effect{Kind: EffectExtraBird, Percent: 10},
		},
		{
			name: "sing inspiration",
			text: "has a 30% chance to give you +1 inspiration",
			want: Effect{Kind: EffectSingInspiration, Percent: 30},
		},
		{
			name: "empty",
			text: "",
			want: Effect{},
		},
		{
			name: "unrecognized prose is inert",
			text: "Smells faintly of eucalyptus",
			want: Effect{},
		},
		{
			name: "near miss does not match",
			text: "Your first build action of the day gives -2 twigs",
			want: Effect{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseEffect(tc.text); got != tc.want {
				t.Errorf("ParseEffect(%q) = %+v, want %+v", tc.text, got, tc.want)
			}
		})
	}
}
