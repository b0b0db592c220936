// clock.go — источник времени и таймеров для реестра отложенных удалений.
// В production используется SystemClock (time.AfterFunc), в тестах —
// ручные часы из пакета undotest.
package undo

import "time"

// Timer — отменяемый таймер.
type Timer interface {
	// Stop отменяет таймер. Возвращает false, если таймер уже сработал или остановлен.
	Stop() bool
}

// Clock — источник текущего времени и отложенных вызовов.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock — реализация Clock поверх пакета time.
type SystemClock struct{}

// Now возвращает текущее время.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc вызывает f в отдельной горутине через d.
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
