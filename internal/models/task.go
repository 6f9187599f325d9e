package models

// Task discriminators. Requirements and complaints share one backend
// collection.
const (
	TaskTypeRequirement = "requirement"
	TaskTypeComplaint   = "complaint"
)

const (
	TaskStatusAssigned   = "Assigned"
	TaskStatusInProgress = "In Progress"
	TaskStatusCompleted  = "Completed"
	TaskStatusClosed     = "Closed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a requirement or complaint raised against a store.
type Task struct {
	ID              int64  `json:"id,omitempty"`
	TaskTitle       string `json:"taskTitle"`
	TaskDescription string `json:"taskDescription,omitempty"`
	DueDate         string `json:"dueDate,omitempty"`
	AssignedToID    int64  `json:"assignedToId,omitempty"`
	AssignedToName  string `json:"assignedToName,omitempty"`
	AssignedByID    int64  `json:"assignedById,omitempty"`
	Status          string `json:"status,omitempty"`
	Priority        string `json:"priority,omitempty"`
	Category        string `json:"category,omitempty"`
	StoreID         int64  `json:"storeId,omitempty"`
	StoreName       string `json:"storeName,omitempty"`
	StoreCity       string `json:"storeCity,omitempty"`
	TaskType        string `json:"taskType"`
}
