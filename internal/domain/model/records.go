package model

import "time"

// Child — сведения о ребёнке служащего.
// Хранится в таблице children.
type Child struct {
	// ID — идентификатор записи (UUID)
	ID string `json:"id"`
	// UserID — владелец записи (subject токена)
	UserID string `json:"user_id"`
	// Name — имя ребёнка
	Name string `json:"name"`
	// DateOfBirth — дата рождения (опционально)
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	// Gender — пол (male, female, other)
	Gender string `json:"gender,omitempty"`
	// CreatedAt — время создания записи
	CreatedAt time.Time `json:"created_at"`
}

// RecordID возвращает идентификатор записи.
func (c Child) RecordID() string { return c.ID }

// Education — сведения об образовании.
// Хранится в таблице education_records.
type Education struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	// Degree — степень или квалификация (SSC, HSC, BSc, ...)
	Degree string `json:"degree"`
	// Institution — учебное заведение
	Institution string `json:"institution"`
	// PassingYear — год окончания (0 — не указан)
	PassingYear int `json:"passing_year,omitempty"`
	// Result — результат (GPA, класс)
	Result    string    `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordID возвращает идентификатор записи.
func (e Education) RecordID() string { return e.ID }

// Document — загруженный документ.
// Метаданные хранятся в таблице documents, содержимое — в объектном хранилище.
type Document struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	// Title — название документа
	Title string `json:"title"`
	// FileName — исходное имя файла
	FileName string `json:"file_name"`
	// ContentType — MIME-тип
	ContentType string `json:"content_type"`
	// Size — размер в байтах
	Size int64 `json:"size"`
	// StoragePath — путь объекта в бакете (<user_id>/<id>/<file_name>)
	StoragePath string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordID возвращает идентификатор записи.
func (d Document) RecordID() string { return d.ID }

// Notification — уведомление пользователя.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordID возвращает идентификатор записи.
func (n Notification) RecordID() string { return n.ID }
