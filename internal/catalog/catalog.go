// Package catalog holds the static task and provider catalogs. Both are
// populated once at init from hard-coded data and are read-only afterwards.
package catalog

import "errors"

var ErrNotFound = errors.New("not found")

var (
	taskIndex     = make(map[TaskID]int, len(tasks))
	providerIndex = make(map[ProviderID]int, len(providers))
)

func init() {
	for i, t := range tasks {
		taskIndex[t.ID] = i
	}
	for i, p := range providers {
		providerIndex[p.ID] = i
	}
}

// ListTasks returns all tasks in stable catalog order.
func ListTasks() []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}

// GetTask returns the task with the given id.
func GetTask(id TaskID) (Task, error) {
	i, ok := taskIndex[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return tasks[i], nil
}

// ListProviders returns all providers in stable catalog order.
func ListProviders() []Provider {
	out := make([]Provider, len(providers))
	copy(out, providers)
	return out
}

// GetProvider returns the provider with the given id.
func GetProvider(id ProviderID) (Provider, error) {
	i, ok := providerIndex[id]
	if !ok {
		return Provider{}, ErrNotFound
	}
	return providers[i], nil
}
