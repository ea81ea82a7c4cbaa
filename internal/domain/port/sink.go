package port

import (
	"context"

	"line-inspector/internal/domain/entity"
)

// EvidenceWriter сохраняет размеченный кадр и гистограмму события
type EvidenceWriter interface {
	// Write возвращает пути к артефактам; ошибка фатальна для потока
	Write(ev *entity.DetectionEvent) (entity.EvidencePaths, error)
}

// EventSink получает уже сохранённые события (уведомления, брокер, журнал)
type EventSink interface {
	// Publish отправляет событие; ошибки не останавливают поток
	Publish(ctx context.Context, ev *entity.DetectionEvent) error
}

// InspectionObserver собирает метрики по циклам инспекции
type InspectionObserver interface {
	ObserveCycle(feed string, result *entity.SimilarityResult, seconds float64)
	ObserveDetection(feed string, ev *entity.DetectionEvent)
	ObserveFailure(feed string, stage entity.Stage)
}

// FaultReporter отправляет фатальные ошибки потоков во внешний сервис
type FaultReporter interface {
	ReportFault(status entity.FeedStatus)
}
