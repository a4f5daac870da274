package core

import "testing"

func TestValidTaskType(t *testing.T) {
	if !ValidTaskType(CategorySowing, "sowing") {
		t.Error("sowing should be a valid sowing task type")
	}
	if ValidTaskType(CategorySowing, "combining") {
		t.Error("combining belongs to harvest, not sowing")
	}
	if ValidTaskType("no_such_category", "sowing") {
		t.Error("unknown category should accept nothing")
	}
}

func TestCompletionEffectFor(t *testing.T) {
	sowing := CompletionEffectFor(CategorySowing, "sowing")
	if !sowing.RequiresMovement() || sowing.Movement.Kind != OperationOutgoing || sowing.Movement.ObjectKind != ObjectCrop {
		t.Errorf("sowing completion should consume crop stock, got %+v", sowing)
	}
	if sowing.PlotStatus != PlotSown || !sowing.SetCrop {
		t.Errorf("sowing completion should mark the plot sown and set its crop, got %+v", sowing)
	}

	harvest := CompletionEffectFor(CategoryHarvest, "combining")
	if !harvest.RequiresMovement() || harvest.Movement.Kind != OperationIncoming {
		t.Errorf("harvest completion should bring crop stock in, got %+v", harvest)
	}
	if harvest.PlotStatus != "" {
		t.Errorf("harvest completion must not relabel the plot, got %q", harvest.PlotStatus)
	}
	if !harvest.RecordHarvest {
		t.Error("harvest completion should record a harvest row")
	}

	protection := CompletionEffectFor(CategoryPlantProtection, "herbicide_treatment")
	if !protection.RequiresMovement() || protection.Movement.ObjectKind != ObjectFertilizer {
		t.Errorf("plant protection should consume fertilizer stock, got %+v", protection)
	}
	if protection.PlotStatus != PlotTreated {
		t.Errorf("plant protection should mark the plot treated, got %q", protection.PlotStatus)
	}

	soilPrep := CompletionEffectFor(CategorySoilPreparation, "plowing")
	if soilPrep.RequiresMovement() {
		t.Error("soil preparation must not move stock")
	}
	if soilPrep.PlotStatus != PlotPrepared {
		t.Errorf("soil preparation should mark the plot prepared, got %q", soilPrep.PlotStatus)
	}
}

func TestCompletionEffectFor_PostHarvestOverride(t *testing.T) {
	// The generic post-harvest row moves nothing; the fertilizing job
	// consumes fertilizer like a treatment.
	generic := CompletionEffectFor(CategoryPostHarvest, "residue_removal")
	if generic.RequiresMovement() {
		t.Error("residue removal must not move stock")
	}
	if generic.PlotStatus != PlotResting {
		t.Errorf("post-harvest should mark the plot resting, got %q", generic.PlotStatus)
	}

	fertilizing := CompletionEffectFor(CategoryPostHarvest, "fertilizing")
	if !fertilizing.RequiresMovement() {
		t.Fatal("post-harvest fertilizing should consume stock")
	}
	if fertilizing.Movement.Kind != OperationOutgoing || fertilizing.Movement.ObjectKind != ObjectFertilizer {
		t.Errorf("post-harvest fertilizing should consume fertilizer, got %+v", fertilizing.Movement)
	}
	if fertilizing.PlotStatus != PlotResting {
		t.Errorf("post-harvest fertilizing should still mark the plot resting, got %q", fertilizing.PlotStatus)
	}
}

func TestStartStatusFor(t *testing.T) {
	cases := []struct {
		category TaskCategory
		taskType string
		want     PlotStatus
	}{
		{CategorySoilPreparation, "plowing", PlotPlowed},
		{CategorySoilPreparation, "cultivation", PlotCultivated},
		{CategorySoilPreparation, "liming", PlotPrepared},
		{CategorySowing, "sowing", PlotSown},
		{CategoryCropCare, "weeding", PlotTended},
		{CategoryPlantProtection, "herbicide_treatment", PlotTreated},
		{CategoryHarvest, "combining", PlotHarvesting},
		{CategoryPostHarvest, "residue_removal", PlotResting},
	}
	for _, c := range cases {
		if got := StartStatusFor(c.category, c.taskType); got != c.want {
			t.Errorf("StartStatusFor(%s, %s) = %q, want %q", c.category, c.taskType, got, c.want)
		}
	}
}

func TestCanCompleteWithoutStart(t *testing.T) {
	if !CanCompleteWithoutStart(CategorySoilPreparation, "plowing") {
		t.Error("soil preparation moves no stock and may skip the start step")
	}
	if !CanCompleteWithoutStart(CategoryCropCare, "weeding") {
		t.Error("crop care moves no stock and may skip the start step")
	}
	if CanCompleteWithoutStart(CategorySowing, "sowing") {
		t.Error("sowing consumes seed stock and must be started explicitly")
	}
	if CanCompleteWithoutStart(CategoryHarvest, "combining") {
		t.Error("harvest brings stock in and must be started explicitly")
	}
	if CanCompleteWithoutStart(CategoryPostHarvest, "fertilizing") {
		t.Error("post-harvest fertilizing consumes stock and must be started explicitly")
	}
}

func TestProjectState(t *testing.T) {
	completed := func(cat TaskCategory, typ string) TaskOutcome {
		return TaskOutcome{Category: cat, TaskType: typ, Status: TaskCompleted}
	}
	running := func(cat TaskCategory, typ string) TaskOutcome {
		return TaskOutcome{Category: cat, TaskType: typ, Status: TaskInProgress}
	}
	sown := func(culture string) TaskOutcome {
		return TaskOutcome{Category: CategorySowing, TaskType: "sowing", Status: TaskCompleted, Culture: culture}
	}

	cases := []struct {
		name       string
		history    []TaskOutcome // most recent first
		wantStatus PlotStatus
		wantCrop   string
	}{
		{"no history", nil, PlotNew, ""},
		{"only cancelled", []TaskOutcome{{Category: CategorySowing, TaskType: "sowing", Status: TaskCancelled, Culture: "Wheat"}}, PlotNew, ""},
		{"running task projects interim label", []TaskOutcome{running(CategoryHarvest, "combining")}, PlotHarvesting, ""},
		{"completed sowing", []TaskOutcome{sown("Wheat")}, PlotSown, "Wheat"},
		{
			// A completed harvest is transparent: the label falls through to
			// the sowing that preceded it, and the crop comes along.
			"completed harvest keeps prior label",
			[]TaskOutcome{completed(CategoryHarvest, "combining"), sown("Wheat")},
			PlotSown, "Wheat",
		},
		{
			"completed harvest with no prior label",
			[]TaskOutcome{completed(CategoryHarvest, "combining")},
			PlotNew, "",
		},
		{
			// Post-harvest relabels the plot but the crop stays what was sown.
			"post-harvest after harvest",
			[]TaskOutcome{completed(CategoryPostHarvest, "residue_removal"), completed(CategoryHarvest, "combining"), sown("Wheat")},
			PlotResting, "Wheat",
		},
		{
			"resowing overrides the older culture",
			[]TaskOutcome{sown("Rye"), completed(CategoryHarvest, "combining"), sown("Wheat")},
			PlotSown, "Rye",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, crop := ProjectState(c.history)
			if status != c.wantStatus || crop != c.wantCrop {
				t.Errorf("ProjectState = (%q, %q), want (%q, %q)", status, crop, c.wantStatus, c.wantCrop)
			}
			// Idempotent: a second projection of the same history agrees.
			againStatus, againCrop := ProjectState(c.history)
			if againStatus != status || againCrop != crop {
				t.Errorf("ProjectState not idempotent: (%q, %q) then (%q, %q)", status, crop, againStatus, againCrop)
			}
		})
	}
}
