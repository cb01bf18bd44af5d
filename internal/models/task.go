package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type TaskStatus string

const (
	StatusIncomplete TaskStatus = "incomplete"
	StatusCompleted  TaskStatus = "completed"
)

// StatusFor переводит состояние чекбокса в статус задачи
func StatusFor(completed bool) TaskStatus {
	if completed {
		return StatusCompleted
	}
	return StatusIncomplete
}

// TaskID принимает из JSON как число (bigint), так и строку (uuid)
type TaskID string

func (id *TaskID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TaskID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("некорректный id задачи %s: %w", data, err)
	}
	*id = TaskID(n.String())
	return nil
}

func (id TaskID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id TaskID) String() string {
	return string(id)
}

type Task struct {
	ID        TaskID     `json:"id"`
	Title     string     `json:"title"`
	Deadline  *Timestamp `json:"deadline"`
	Status    TaskStatus `json:"status"`
	UserID    string     `json:"user_id"`
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at"`
}

func (t Task) IsComplete() bool {
	return t.Status == StatusCompleted
}

// Тело запроса на вставку задачи; Deadline передается как есть, nil - без срока
type CreateTaskRequest struct {
	Title    string     `json:"title"`
	Deadline *string    `json:"deadline"`
	UserID   string     `json:"user_id"`
	Status   TaskStatus `json:"status"`
}

type UpdateTaskRequest struct {
	Status TaskStatus `json:"status"`
}
