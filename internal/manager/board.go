package manager

import (
	"sync"
	"time"

	"todo-tracker/internal/models"
)

// Row - отрисованная строка списка задач
type Row struct {
	Task    models.Task
	Urgency Urgency
}

func (r Row) DOMID() string {
	return "task-" + r.Task.ID.String()
}

// Completed - зачеркнутый текст
func (r Row) Completed() bool {
	return r.Task.IsComplete()
}

func newRow(task models.Task, now time.Time) Row {
	var deadline *time.Time
	if task.Deadline != nil {
		deadline = &task.Deadline.Time
	}
	return Row{Task: task, Urgency: Classify(deadline, task.IsComplete(), now)}
}

// BoardView - снимок списка для отрисовки
type BoardView struct {
	Rows        []Row
	Placeholder bool
}

// Board хранит последнее известное состояние списка задач, как DOM в браузере.
// Мутации выполняются под mu целиком, удаленные вызовы - вне его.
type Board struct {
	mu          sync.Mutex
	rows        []Row
	placeholder bool
}

func NewBoard() *Board {
	return &Board{}
}

// Reset заменяет список результатом загрузки, новые задачи первыми
func (b *Board) Reset(tasks []models.Task, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rows = make([]Row, 0, len(tasks))
	for _, t := range tasks {
		b.rows = append(b.rows, newRow(t, now))
	}
	b.placeholder = len(b.rows) == 0
}

// Clear оставляет список пустым после ошибки загрузки
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rows = nil
}

func (b *Board) Prepend(task models.Task, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rows = append([]Row{newRow(task, now)}, b.rows...)
	b.placeholder = false
}

// SetStatus обновляет строку на месте и пересчитывает срочность
func (b *Board) SetStatus(id models.TaskID, status models.TaskStatus, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.rows {
		if b.rows[i].Task.ID == id {
			task := b.rows[i].Task
			task.Status = status
			b.rows[i] = newRow(task, now)
			return true
		}
	}
	return false
}

func (b *Board) Remove(id models.TaskID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.rows {
		if b.rows[i].Task.ID == id {
			b.rows = append(b.rows[:i], b.rows[i+1:]...)
			if len(b.rows) == 0 {
				b.placeholder = true
			}
			return true
		}
	}
	return false
}

func (b *Board) Row(id models.TaskID) (Row, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.rows {
		if r.Task.ID == id {
			return r, true
		}
	}
	return Row{}, false
}

func (b *Board) View() BoardView {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows := make([]Row, len(b.rows))
	copy(rows, b.rows)
	return BoardView{Rows: rows, Placeholder: b.placeholder}
}
