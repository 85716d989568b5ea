package main

import (
	"reflect"
	"testing"
	"time"
)

func TestGatherFlagsOnlyChanged(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.PersistentFlags().Parse([]string{
		"--language", "pt-BR",
		"--skip-step", "recycle",
		"--skip-step", "/^browser/",
		"--pause", "1s",
		"--yes",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	values, err := gatherFlags(cmd.PersistentFlags())
	if err != nil {
		t.Fatalf("gatherFlags: %v", err)
	}
	if !values.Language.Set || values.Language.Value != "pt-BR" {
		t.Fatalf("language = %+v", values.Language)
	}
	if !reflect.DeepEqual(values.SkipSteps.Values, []string{"recycle", "/^browser/"}) {
		t.Fatalf("skip steps = %v", values.SkipSteps.Values)
	}
	if !values.Pause.Set || values.Pause.Value != time.Second {
		t.Fatalf("pause = %+v", values.Pause)
	}
	if !values.AssumeYes.Set || !values.AssumeYes.Value {
		t.Fatalf("yes = %+v", values.AssumeYes)
	}
	if values.Format.Set || values.DryRun.Set || values.ReportDir.Set {
		t.Fatalf("unset flags reported as set: %+v", values)
	}
}
