package main

import (
	"fmt"
	"strings"

	"todo-tracker/internal/manager"
	"todo-tracker/internal/models"
)

const helpText = `🤖 *Помощь по командам*

*/login email пароль* - Войти
*/signup email пароль* - Зарегистрироваться
*/logout* - Выйти
*/list* - Показать все задачи
*/add задача | срок* - Добавить задачу (срок необязателен)
*/done номер* - Отметить задачу выполненной
*/undo номер* - Вернуть задачу в работу
*/delete номер* - Удалить задачу
*/week* - Выполненные задачи за неделю
*/help* - Показать эту справку

*Примеры использования:*
/add Купить молоко
/add Подготовить отчет | 2026-03-13T18:00
/done 1`

const deadlineLayout = "02.01.2006 15:04"

var urgencyEmoji = map[manager.Urgency]string{
	manager.UrgencyNeutral:     "⚪",
	manager.UrgencyOverdue:     "🔴",
	manager.UrgencyDueSoon:     "🟡",
	manager.UrgencyComfortable: "🟢",
}

// parseCredentials разбирает "email пароль"; пароль - весь остаток строки, пробелы внутри сохраняются
func parseCredentials(args string) (email, password string) {
	args = strings.TrimSpace(args)
	if i := strings.IndexAny(args, " \t\n"); i >= 0 {
		return args[:i], strings.TrimSpace(args[i+1:])
	}
	return args, ""
}

// parseAddArgs делит "задача | срок"
func parseAddArgs(text string) (title, deadline string) {
	title, deadline, _ = strings.Cut(text, "|")
	return strings.TrimSpace(title), strings.TrimSpace(deadline)
}

func formatTask(t *models.Task) string {
	status := "⬜"
	if t.IsComplete() {
		status = "✅"
	}

	line := fmt.Sprintf("%s #%s: %s", status, t.ID, t.Title)
	if t.Deadline != nil {
		line += "\n    Срок: " + t.Deadline.Format(deadlineLayout)
	}
	return line
}

func formatBoard(view manager.BoardView, email string) string {
	if len(view.Rows) == 0 {
		return "📭 Список задач пуст"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Задачи %s:\n\n", email))
	for _, row := range view.Rows {
		task := row.Task
		sb.WriteString(urgencyEmoji[row.Urgency])
		sb.WriteString(formatTask(&task))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatWeek(data manager.ProgressData) string {
	var sb strings.Builder
	sb.WriteString("📊 Выполнено за неделю:\n\n")
	for _, b := range data.Buckets {
		sb.WriteString(fmt.Sprintf("%-7s %s %d\n", b.Label, strings.Repeat("█", b.Count), b.Count))
	}
	sb.WriteString(fmt.Sprintf("\nВсего: %d", data.Total()))
	return sb.String()
}
