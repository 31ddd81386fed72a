package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestConfigShow(t *testing.T) {
	out, _, err := executeCommand(t, "mode: two-pools\ncasePoolSize: 16\n", "config", "show")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"mode", "two-pools", "casepoolsize", "16", "workload.suites", "Config file:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShowYAML(t *testing.T) {
	out, _, err := executeCommand(t, "mode: shared\n", "config", "show", "-o", "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, out)
	}
	if got["mode"] != "shared" {
		t.Errorf("mode = %v, want shared", got["mode"])
	}
	if _, ok := got["workload"]; !ok {
		t.Error("expected nested workload settings")
	}
}

func TestConfigShowInvalid(t *testing.T) {
	_, _, err := executeCommand(t, "mode: turbo\n", "config", "show")
	if err == nil {
		t.Fatal("expected error for an invalid config file")
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paratest.yaml")

	run := func(args ...string) error {
		cmd := newRootCmd()
		cmd.SetArgs(append([]string{"--config", path, "config", "init"}, args...))
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		return cmd.Execute()
	}

	if err := run(); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file was not written: %v", err)
	}
	if !strings.Contains(string(data), "owned-shared") {
		t.Errorf("written config missing the default mode:\n%s", data)
	}

	err = run()
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init error = %v, want already exists", err)
	}

	if err := run("--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
}
