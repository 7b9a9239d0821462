package workspace

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_LoadMissing(t *testing.T) {
	p, err := LoadProfile(afero.NewMemMapFs(), "/proj")
	require.NoError(t, err)
	assert.Equal(t, &Profile{}, p)
}

func TestProfile_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := &Profile{
		Language:   "python",
		Type:       "web",
		Framework:  "flask",
		RunCommand: "python app.py",
		Files:      []string{"app.py"},
	}
	require.NoError(t, SaveProfile(fs, "/proj", in))

	data, err := afero.ReadFile(fs, "/proj/"+ProfileFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run: python app.py")

	out, err := LoadProfile(fs, "/proj")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestProfile_LoadInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/"+ProfileFile, []byte("files: [unterminated\n"), 0o644))
	_, err := LoadProfile(fs, "/proj")
	assert.Error(t, err)
}

func TestProfile_SetGet(t *testing.T) {
	var p Profile
	for _, key := range ProfileKeys {
		require.NoError(t, p.Set(key, "  v-"+key+" "))
		got, err := p.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "v-"+key, got)
	}
	assert.Error(t, p.Set("color", "blue"))
	_, err := p.Get("color")
	assert.Error(t, err)
}

func TestProfile_Summary(t *testing.T) {
	tests := []struct {
		p    Profile
		want string
	}{
		{Profile{}, ""},
		{Profile{Type: "web", Language: "python", Framework: "Flask"}, "This is a web project, the project uses python and the Flask framework."},
		{Profile{Type: "game", Language: "rust"}, "This is a game project, the project uses rust."},
		{Profile{Language: "go"}, "This is a software project, the project uses go."},
		{Profile{Framework: "Django"}, "This is a software project, the project uses the Django framework."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.p.Summary())
	}
}
