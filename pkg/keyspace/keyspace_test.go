package keyspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopedKey(t *testing.T) {
	assert.Equal(t, "auth_token", ScopedKey("auth_token", ""))
	assert.Equal(t, "auth_token:evolve", ScopedKey("auth_token", "evolve"))
	assert.NotEqual(t, ScopedKey("auth_token", "evolve"), ScopedKey("auth_token", "sparta"))
}

func TestScope(t *testing.T) {
	tests := []struct {
		tenant, user, want string
	}{
		{"", "", ""},
		{"evolve", "", "evolve"},
		{"", "42", "42"},
		{" evolve ", "42", "evolve.42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Scope(tt.tenant, tt.user))
	}
}

func TestHasScope_ExactSuffix(t *testing.T) {
	assert.True(t, HasScope("auth_token:ab", "ab"))
	assert.False(t, HasScope("auth_token:abc", "ab"))
	assert.False(t, HasScope("auth_token", "ab"))
	assert.False(t, HasScope("auth_tokenab", "ab"))
	assert.False(t, HasScope("auth_token:ab", ""))
}

func TestFilterByScope_Isolation(t *testing.T) {
	keys := []string{
		"auth_token",
		"auth_token:evolve",
		"refresh_token:evolve",
		"auth_token:sparta",
		"auth_token:evolvex",
		"cache:dashboard:evolve",
	}

	got := FilterByScope(keys, "evolve")

	assert.ElementsMatch(t, []string{"auth_token:evolve", "refresh_token:evolve", "cache:dashboard:evolve"}, got)
}

func TestFilterByPrefixAndExclude(t *testing.T) {
	keys := []string{"cache:a", "cache:app_config", "cache:app_config:evolve", "other"}

	under := FilterByPrefix(keys, "cache:")
	assert.Equal(t, []string{"cache:a", "cache:app_config", "cache:app_config:evolve"}, under)

	kept := Exclude(under, func(k string) bool { return IsVariantOf(k, "cache:app_config") })
	assert.Equal(t, []string{"cache:a"}, kept)
}

func TestIsVariantOf(t *testing.T) {
	assert.True(t, IsVariantOf("cache:leaderboard", "cache:leaderboard"))
	assert.True(t, IsVariantOf("cache:leaderboard:weekly:all", "cache:leaderboard"))
	assert.False(t, IsVariantOf("cache:leaderboards", "cache:leaderboard"))
}
