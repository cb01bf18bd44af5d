// Package chart описывает контракт отрисовщика графиков и столбчатую SVG-диаграмму.
package chart

import (
	"errors"
	"html/template"
)

var ErrMismatchedData = errors.New("chart: число подписей не совпадает с числом значений")

// Data - подписи и значения, выровненные по индексу
type Data struct {
	Labels []string
	Values []int
}

func (d Data) Validate() error {
	if len(d.Labels) != len(d.Values) {
		return ErrMismatchedData
	}
	return nil
}

// Chart - отрисованный экземпляр; перед заменой его нужно явно освободить
type Chart interface {
	HTML() template.HTML
	Data() Data
	Destroy()
}

type Renderer interface {
	Render(d Data) (Chart, error)
}
