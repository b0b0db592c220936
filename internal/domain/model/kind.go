// Пакет model — записи портала, отображаемые на страницах со списками.
package model

import "fmt"

// Kind — вид страницы со списком записей.
type Kind string

const (
	// KindChildren — сведения о детях.
	KindChildren Kind = "children"
	// KindEducation — сведения об образовании.
	KindEducation Kind = "education"
	// KindDocuments — загруженные документы.
	KindDocuments Kind = "documents"
	// KindNotifications — уведомления пользователя.
	KindNotifications Kind = "notifications"
)

// Kinds — все виды страниц в порядке отображения в навигации.
var Kinds = []Kind{KindChildren, KindEducation, KindDocuments, KindNotifications}

// ParseKind разбирает строковое представление вида страницы.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("неизвестный вид страницы: %q", s)
}

// Table возвращает имя таблицы PostgreSQL для вида страницы.
func (k Kind) Table() string {
	switch k {
	case KindChildren:
		return "children"
	case KindEducation:
		return "education_records"
	case KindDocuments:
		return "documents"
	case KindNotifications:
		return "notifications"
	}
	return ""
}
