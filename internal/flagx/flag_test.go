package flagx

import (
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	serverFlags := []string{"-a", "-k", "-d", "-m"}
	configFlags := []string{"-c", "-config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{"config path among server flags", []string{"-a", ":50051", "-c", "server.json", "-k", "sqlite"}, configFlags, []string{"-c", "server.json"}},
		{"inline value", []string{"-config=/etc/pmcloud.json", "-a", ":1"}, configFlags, []string{"-config=/etc/pmcloud.json"}},
		{"server flags without the config flag", []string{"-c", "server.json", "-k", "dynamodb", "-d", "file::memory:"}, serverFlags, []string{"-k", "dynamodb", "-d", "file::memory:"}},
		{"empty metrics address is a flag, not a value", []string{"-m", "-a", ":1"}, serverFlags, []string{"-m", "-a", ":1"}},
		{"trailing flag without value", []string{"-k"}, serverFlags, []string{"-k"}},
		{"positional arguments dropped", []string{"serve", "-k", "postgres", "extra"}, serverFlags, []string{"-k", "postgres"}},
		{"repeats keep their order", []string{"-a", ":1", "-a", ":2"}, serverFlags, []string{"-a", ":1", "-a", ":2"}},
		{"nothing allowed matches", []string{"-x", "1"}, serverFlags, []string{}},
		{"no args", nil, serverFlags, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv(ConfigEnvVar, "")

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/short.json"}
		assert.Equal(t, "/path/short.json", JsonConfigFlags())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", "/path/long.json"}
		assert.Equal(t, "/path/long.json", JsonConfigFlags())
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "1", "-y", "2"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("multiple flags, last wins", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", "/path/1.json", "-config", "/path/2.json"}
		assert.Equal(t, "/path/2.json", JsonConfigFlags())
	})

	t.Run("env fallback when no flag", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/etc/pmcloud/server.json")
		os.Args = []string{"testbin", "-a", ":1"}
		assert.Equal(t, "/etc/pmcloud/server.json", JsonConfigFlags())
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/etc/pmcloud/server.json")
		os.Args = []string{"testbin", "-c=/tmp/local.json"}
		assert.Equal(t, "/tmp/local.json", JsonConfigFlags())
	})
}
