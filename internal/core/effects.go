package core

// Task types per category. This is the closed catalog the create wizard in
// the old desktop tool offered, translated to canonical identifiers.
var taskTypesByCategory = map[TaskCategory][]string{
	CategorySoilPreparation: {"plowing", "harrowing", "cultivation", "liming"},
	CategorySowing:          {"sowing", "overseeding"},
	CategoryCropCare:        {"weeding", "hilling", "feeding", "watering"},
	CategoryPlantProtection: {"herbicide_treatment", "insecticide_treatment", "fungicide_treatment"},
	CategoryHarvest:         {"combining", "manual_harvest", "transport"},
	CategoryPostHarvest:     {"residue_removal", "fertilizing", "winter_preparation"},
}

// ValidTaskType reports whether taskType belongs to category.
func ValidTaskType(category TaskCategory, taskType string) bool {
	for _, t := range taskTypesByCategory[category] {
		if t == taskType {
			return true
		}
	}
	return false
}

// TaskTypes returns the allowed task types for a category, in wizard order.
func TaskTypes(category TaskCategory) []string {
	return taskTypesByCategory[category]
}

// Categories returns all task categories in wizard order.
func Categories() []TaskCategory {
	return []TaskCategory{
		CategorySoilPreparation,
		CategorySowing,
		CategoryCropCare,
		CategoryPlantProtection,
		CategoryHarvest,
		CategoryPostHarvest,
	}
}

// MovementSpec describes the single stock movement a task completion must
// execute: which direction and which catalog the moved object belongs to.
// The warehouse, object and quantity come from the task's stock link.
type MovementSpec struct {
	Kind       OperationKind
	ObjectKind ObjectKind
}

// CompletionEffect is one row of the completion table: at most one stock
// movement plus the plot-side effect. A zero PlotStatus leaves the plot
// status untouched (harvest feeds analytics without relabeling the plot).
type CompletionEffect struct {
	Movement      *MovementSpec
	PlotStatus    PlotStatus
	SetCrop       bool // overwrite the plot's crop with the moved culture name
	RecordHarvest bool // append a harvests row for analytics
}

// RequiresMovement reports whether completing a task with this effect needs
// a stock link.
func (e CompletionEffect) RequiresMovement() bool {
	return e.Movement != nil
}

// completionByCategory is the canonical mapping from §"what completing a
// task does". Extend by adding rows, not by branching in the orchestrator.
var completionByCategory = map[TaskCategory]CompletionEffect{
	CategorySoilPreparation: {PlotStatus: PlotPrepared},
	CategorySowing: {
		Movement:   &MovementSpec{Kind: OperationOutgoing, ObjectKind: ObjectCrop},
		PlotStatus: PlotSown,
		SetCrop:    true,
	},
	CategoryCropCare: {PlotStatus: PlotTended},
	CategoryPlantProtection: {
		Movement:   &MovementSpec{Kind: OperationOutgoing, ObjectKind: ObjectFertilizer},
		PlotStatus: PlotTreated,
	},
	CategoryHarvest: {
		Movement:      &MovementSpec{Kind: OperationIncoming, ObjectKind: ObjectCrop},
		RecordHarvest: true,
	},
	CategoryPostHarvest: {PlotStatus: PlotResting},
}

// completionOverrides refines the category row for specific task types.
// The legacy tool consumed fertilizer stock for the post-harvest
// "fertilizing" job exactly like a plant-protection treatment.
var completionOverrides = map[TaskCategory]map[string]CompletionEffect{
	CategoryPostHarvest: {
		"fertilizing": {
			Movement:   &MovementSpec{Kind: OperationOutgoing, ObjectKind: ObjectFertilizer},
			PlotStatus: PlotResting,
		},
	},
}

// CompletionEffectFor returns the completion effect for (category, taskType).
func CompletionEffectFor(category TaskCategory, taskType string) CompletionEffect {
	if byType, ok := completionOverrides[category]; ok {
		if eff, ok := byType[taskType]; ok {
			return eff
		}
	}
	return completionByCategory[category]
}

// startStatusByCategory maps a just-started task to the plot's interim
// status label.
var startStatusByCategory = map[TaskCategory]PlotStatus{
	CategorySoilPreparation: PlotPlowed,
	CategorySowing:          PlotSown,
	CategoryCropCare:        PlotTended,
	CategoryPlantProtection: PlotTreated,
	CategoryHarvest:         PlotHarvesting,
	CategoryPostHarvest:     PlotResting,
}

// startStatusOverrides refines the interim label for specific task types.
var startStatusOverrides = map[TaskCategory]map[string]PlotStatus{
	CategorySoilPreparation: {
		"cultivation": PlotCultivated,
		"liming":      PlotPrepared,
	},
}

// StartStatusFor returns the interim plot status applied when a task of
// (category, taskType) starts.
func StartStatusFor(category TaskCategory, taskType string) PlotStatus {
	if byType, ok := startStatusOverrides[category]; ok {
		if s, ok := byType[taskType]; ok {
			return s
		}
	}
	if s, ok := startStatusByCategory[category]; ok {
		return s
	}
	return PlotPrepared
}

// CanCompleteWithoutStart reports whether a task of this category/type may
// go straight from planned to completed. Only categories whose completion
// carries no stock movement are exempt from an explicit start; sowing,
// harvest and plant protection always pass through in_progress.
func CanCompleteWithoutStart(category TaskCategory, taskType string) bool {
	return !CompletionEffectFor(category, taskType).RequiresMovement()
}

// TaskOutcome is the slice of a task's history the projector consumes.
// Culture is the moved object's name, set where the task's completion effect
// carries SetCrop (sowing).
type TaskOutcome struct {
	Category TaskCategory
	TaskType string
	Status   TaskStatus
	Culture  string
}

// ProjectState derives a plot's (status, crop) from its task history,
// ordered most recent first. Pure and idempotent: the same history always
// yields the same projection. An in-progress task projects its interim start
// status; a completed task projects its completion effect. Completions that
// do not relabel the plot (harvest) are transparent — the projector keeps
// walking to the task whose effect last set a label. The crop is the culture
// of the most recent completed task whose effect sets it. A plot with no
// started or completed tasks is "new" with no crop.
func ProjectState(history []TaskOutcome) (PlotStatus, string) {
	status := PlotStatus("")
	crop := ""
	cropSet := false
	for i := range history {
		t := &history[i]
		switch t.Status {
		case TaskInProgress:
			if status == "" {
				status = StartStatusFor(t.Category, t.TaskType)
			}
		case TaskCompleted:
			eff := CompletionEffectFor(t.Category, t.TaskType)
			if status == "" && eff.PlotStatus != "" {
				status = eff.PlotStatus
			}
			if !cropSet && eff.SetCrop {
				crop = t.Culture
				cropSet = true
			}
		}
		if status != "" && cropSet {
			break
		}
	}
	if status == "" {
		status = PlotNew
	}
	return status, crop
}
