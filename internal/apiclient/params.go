package apiclient

import (
	"net/url"
	"strconv"
)

// Params собирает query-строку, пропуская незаданные значения
type Params struct {
	values url.Values
}

// NewParams создаёт пустой набор параметров
func NewParams() *Params {
	return &Params{values: url.Values{}}
}

// Set добавляет строковый параметр, если он не пустой
func (p *Params) Set(key, value string) *Params {
	if value != "" {
		p.values.Set(key, value)
	}
	return p
}

// SetInt добавляет целый параметр, если он положительный
func (p *Params) SetInt(key string, value int) *Params {
	if value > 0 {
		p.values.Set(key, strconv.Itoa(value))
	}
	return p
}

// SetBool добавляет параметр только для true
func (p *Params) SetBool(key string, value bool) *Params {
	if value {
		p.values.Set(key, "true")
	}
	return p
}

// Values возвращает собранные параметры
func (p *Params) Values() url.Values {
	return p.values
}
