package magnet_test

import (
	"testing"

	"github.com/litescript/ls-movie-launcher/internal/magnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		hash     string
		title    string
		trackers []string
		want     string
	}{
		{
			name:     "single tracker",
			hash:     "ABCD1234",
			title:    "Test Movie",
			trackers: []string{"udp://a:1"},
			want:     "magnet:?xt=urn:btih:ABCD1234&dn=Test%20Movie&tr=udp%3A%2F%2Fa%3A1",
		},
		{
			name:  "no trackers",
			hash:  "FF00",
			title: "Amélie",
			want:  "magnet:?xt=urn:btih:FF00&dn=Am%C3%A9lie",
		},
		{
			name:     "tracker order kept",
			hash:     "01",
			title:    "A+B & C",
			trackers: []string{"udp://z:2/announce", "udp://a:1"},
			want:     "magnet:?xt=urn:btih:01&dn=A%2BB%20%26%20C&tr=udp%3A%2F%2Fz%3A2%2Fannounce&tr=udp%3A%2F%2Fa%3A1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, magnet.Build(tt.hash, tt.title, tt.trackers))
		})
	}
}

func TestParse(t *testing.T) {
	link := "magnet:?xt=urn:btih:ABCD1234&dn=Test%20Movie&tr=udp%3A%2F%2Fa%3A1&tr=udp%3A%2F%2Fb%3A2&tr=udp%3A%2F%2Fa%3A1"

	m, err := magnet.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", m.Hash)
	assert.Equal(t, "Test Movie", m.DisplayName)
	assert.Equal(t, []string{"udp://a:1", "udp://b:2"}, m.Trackers)
}

func TestParseErrors(t *testing.T) {
	_, err := magnet.Parse("http://example.com/?xt=urn:btih:AA")
	assert.Error(t, err)

	_, err = magnet.Parse("magnet:?dn=NoHash")
	assert.Error(t, err)

	_, err = magnet.Parse("magnet:?xt=urn:btih:AA&xt=urn:btih:BB")
	assert.Error(t, err)
}

func TestBuildParseAgree(t *testing.T) {
	m := magnet.Magnet{Hash: "C0FFEE", DisplayName: "The Thing (1982)", Trackers: []string{"udp://t:1/announce"}}

	parsed, err := magnet.Parse(m.String())
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
}
