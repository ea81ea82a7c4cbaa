package entity

import "strings"

// FeedState состояние рабочего цикла потока
type FeedState string

const (
	FeedStarting FeedState = "starting" // Открытие источника и построение эталона
	FeedRunning  FeedState = "running"  // Цикл инспекции
	FeedDraining FeedState = "draining" // Освобождение ресурсов
	FeedStopped  FeedState = "stopped"  // Поток завершён
)

// feedTransitions допустимые переходы между состояниями
var feedTransitions = map[FeedState][]FeedState{
	FeedStarting: {FeedRunning, FeedDraining},
	FeedRunning:  {FeedDraining},
	FeedDraining: {FeedStopped},
}

// CanTransition сообщает, разрешён ли переход в next
func (s FeedState) CanTransition(next FeedState) bool {
	for _, allowed := range feedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FeedStatus итоговый отчёт по одному потоку
type FeedStatus struct {
	Feed   string    // идентификатор потока (индекс устройства или путь)
	State  FeedState // последнее состояние
	Cycles int       // число выполненных циклов инспекции
	Events int       // число событий с дефектами
	Err    error     // фатальная ошибка, nil при штатной остановке
}

// Failed возвращает true, если поток остановился из-за ошибки
func (s FeedStatus) Failed() bool {
	return s.Err != nil
}

// FeedTag превращает идентификатор потока в безопасную часть имени файла или топика.
func FeedTag(feed string) string {
	var b strings.Builder
	dash := false
	for _, r := range feed {
		ok := r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
		if ok {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	tag := strings.TrimRight(b.String(), "-")
	if tag == "" {
		return "feed"
	}
	return tag
}
