package catalog

import "testing"

func TestListTasksStableOrder(t *testing.T) {
	first := ListTasks()
	second := ListTasks()
	if len(first) == 0 {
		t.Fatalf("catalog has no tasks")
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("task order unstable at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestGetTaskNotFound(t *testing.T) {
	if _, err := GetTask("no_such_task"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEveryTaskRoutesToKnownProviders(t *testing.T) {
	for _, task := range ListTasks() {
		if task.CreditCost <= 0 {
			t.Errorf("task %s has non-positive credit cost %d", task.ID, task.CreditCost)
		}
		if _, err := GetProvider(task.Primary); err != nil {
			t.Errorf("task %s primary provider %s not in catalog", task.ID, task.Primary)
		}
		if _, err := GetProvider(task.Fallback); err != nil {
			t.Errorf("task %s fallback provider %s not in catalog", task.ID, task.Fallback)
		}
	}
}

func TestPropertyDamageRouting(t *testing.T) {
	task, err := GetTask(TaskPropertyDamage)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Primary != ProviderGemini {
		t.Fatalf("expected gemini primary, got %s", task.Primary)
	}
	if task.Fallback != ProviderRoboflow {
		t.Fatalf("expected roboflow fallback, got %s", task.Fallback)
	}
}

func TestQueryTasksMarked(t *testing.T) {
	task, err := GetTask(TaskCustomQuery)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !task.RequiresQuery {
		t.Fatalf("custom_query must require a query")
	}
}
