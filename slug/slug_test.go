package slug_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rolegate/rolegate/slug"
)

func TestMake(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Show Users", "show-users"},
		{"show-users", "show-users"},
		{"  Edit   Users  ", "edit-users"},
		{"Delete/Users!", "delete-users"},
		{"view_users", "view-users"},
		{"Rôle Spécial", "role-special"},
		{"UPPER", "upper"},
		{"já-slug-42", "ja-slug-42"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, slug.Make(tc.label), "label %q", tc.label)
	}
}

func TestMakeIdempotent(t *testing.T) {
	for _, label := range []string{"Show Users", "a  b  c", "Crème Brûlée", "already-canonical"} {
		once := slug.Make(label)
		require.Equal(t, once, slug.Make(once))
	}
}

func TestMakeEquivalentForms(t *testing.T) {
	// Labels differing only in case, whitespace and punctuation collapse to
	// the same slug.
	forms := []string{"Show Users", "show users", "SHOW-USERS", "show_users", "show,users"}
	want := slug.Make(forms[0])
	for _, f := range forms[1:] {
		require.Equal(t, want, slug.Make(f))
	}
}
