package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-cpu-ms", "1500", "-memory-mb", "64", "-pids", "8", "-output-mb", "2", "-seccomp", "/p.json", "--", "./Main", "-x"})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if opts.CPUTimeMs != 1500 || opts.MemoryMB != 64 || opts.PIDs != 8 || opts.OutputMB != 2 || opts.SeccompProfile != "/p.json" {
		t.Fatalf("unexpected options %+v", opts)
	}
	if !reflect.DeepEqual(opts.Cmd, []string{"./Main", "-x"}) {
		t.Fatalf("flags after -- belong to the command, got %v", opts.Cmd)
	}

	limits := opts.rlimits()
	if len(limits) != 4 {
		t.Fatalf("expected 4 limits, got %+v", limits)
	}
	if limits[0].name != "cpu" || limits[0].value != 2 {
		t.Fatalf("cpu limit must round up to whole seconds, got %+v", limits[0])
	}
	if limits[1].value != 64<<20 || limits[3].value != 2<<20 {
		t.Fatalf("unexpected byte limits %+v", limits)
	}
}

func TestParseArgsErrors(t *testing.T) {
	cases := map[string][]string{
		"no command":   {"-cpu-ms", "100", "--"},
		"bad number":   {"-pids", "many", "--", "true"},
		"negative":     {"-memory-mb", "-1", "--", "true"},
		"unknown flag": {"-net", "--", "true"},
	}
	for name, argv := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseArgs(argv); err == nil {
				t.Fatalf("expected error for %v", argv)
			}
		})
	}
	opts, err := parseArgs([]string{"--", "true"})
	if err != nil || len(opts.rlimits()) != 0 {
		t.Fatalf("no flags means no limits, got %+v %v", opts, err)
	}
}

func TestLoadSeccompProfile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	_ = os.WriteFile(good, []byte(`{"defaultAction":"SCMP_ACT_ALLOW","syscalls":[{"names":["ptrace","mount"],"action":"SCMP_ACT_ERRNO"}]}`), 0o644)
	profile, err := loadSeccompProfile(good)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if profile.DefaultAction != "SCMP_ACT_ALLOW" || len(profile.Syscalls) != 1 || len(profile.Syscalls[0].Names) != 2 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	empty := filepath.Join(dir, "empty.json")
	_ = os.WriteFile(empty, []byte(`{"syscalls":[]}`), 0o644)
	if _, err := loadSeccompProfile(empty); err == nil {
		t.Fatalf("expected error without default action")
	}
	if _, err := loadSeccompProfile(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if normalizeAction(" scmp_act_allow ") != "SCMP_ACT_ALLOW" {
		t.Fatalf("action names must be case-insensitive")
	}
}
