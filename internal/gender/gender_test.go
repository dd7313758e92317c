package gender

import (
	"errors"
	"testing"
)

func TestParseGender(t *testing.T) {
	cases := map[string]Gender{
		"Male":      Male,
		" MEN ":     Male,
		"f":         Female,
		"Woman":     Female,
		"nonbinary": Other,
		"":          Unknown,
	}
	for in, want := range cases {
		got, err := ParseGender(in)
		if err != nil {
			t.Fatalf("ParseGender(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseGender(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseGender("robot"); !errors.Is(err, ErrUnknownGender) {
		t.Errorf("expected ErrUnknownGender, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("FEMALE"); got != Female {
		t.Errorf("Normalize(FEMALE) = %q", got)
	}
	if got := Normalize("??"); got != Unknown {
		t.Errorf("Normalize(??) = %q", got)
	}
}

func TestPreferenceAccepts(t *testing.T) {
	tests := []struct {
		pref Preference
		g    Gender
		want bool
	}{
		{Men, Male, true},
		{Men, Female, false},
		{Women, Female, true},
		{Both, Male, true},
		{Both, Female, true},
		{Both, Other, false},
		{OtherGenders, Other, true},
		{OtherGenders, Male, false},
		{NoPreference, Other, true},
		{NoPreference, Unknown, false},
		{NoneStated, Male, false},
	}
	for _, tt := range tests {
		if got := tt.pref.Accepts(tt.g); got != tt.want {
			t.Errorf("%q.Accepts(%q) = %v, want %v", tt.pref, tt.g, got, tt.want)
		}
	}
}

func TestMutualIsSymmetric(t *testing.T) {
	prefs := []Preference{NoneStated, Men, Women, Both, OtherGenders, NoPreference}
	genders := []Gender{Unknown, Male, Female, Other}
	for _, ag := range genders {
		for _, ap := range prefs {
			for _, bg := range genders {
				for _, bp := range prefs {
					if Mutual(ag, ap, bg, bp) != Mutual(bg, bp, ag, ap) {
						t.Fatalf("asymmetric: (%q,%q) vs (%q,%q)", ag, ap, bg, bp)
					}
				}
			}
		}
	}
}
