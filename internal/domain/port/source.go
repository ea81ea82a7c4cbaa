package port

import (
	"context"

	"line-inspector/internal/domain/entity"
)

// FrameSource источник кадров одного потока (камера, видеофайл, каталог снимков)
type FrameSource interface {
	// Read блокируется до появления кадра; entity.ErrSourceUnavailable: поток закончился
	Read(ctx context.Context) (*entity.FrameSample, error)

	// Size возвращает исходное разрешение источника
	Size() (width, height int)

	// Close освобождает устройство или файл
	Close() error
}

// SourceOpener открывает источник по идентификатору потока
type SourceOpener func(feed string) (FrameSource, error)
