package evidence

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v3/disk"

	"line-inspector/internal/domain/entity"
)

// LowSpaceThreshold порог свободного места, ниже которого пишется предупреждение.
const LowSpaceThreshold = 512 << 20

// Space сведения о томе с каталогом результатов.
type Space struct {
	Total uint64
	Free  uint64
}

// Low сообщает, что свободного места меньше порога.
func (s Space) Low() bool {
	return s.Free < LowSpaceThreshold
}

// Preflight проверяет каталог результатов до запуска потоков.
// Отсутствующий каталог создаётся только при create=true.
func Preflight(root string, create bool, logger *log.Logger) (Space, error) {
	var space Space

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !create {
			return space, fmt.Errorf("output folder %s does not exist (use --create-output): %w", root, entity.ErrConfiguration)
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return space, fmt.Errorf("create output folder %s: %v: %w", root, err, entity.ErrWriteFailure)
		}
		if logger != nil {
			logger.Info("output folder created", "path", root)
		}
	case err != nil:
		return space, fmt.Errorf("stat output folder %s: %v: %w", root, err, entity.ErrConfiguration)
	case !info.IsDir():
		return space, fmt.Errorf("output path %s is not a directory: %w", root, entity.ErrConfiguration)
	}

	probe, err := os.CreateTemp(root, ".probe-*")
	if err != nil {
		return space, fmt.Errorf("output folder %s is not writable: %v: %w", root, err, entity.ErrWriteFailure)
	}
	probe.Close()
	os.Remove(probe.Name())

	usage, err := disk.Usage(root)
	if err != nil {
		// Не все файловые системы отдают статистику
		if logger != nil {
			logger.Warn("disk usage unavailable", "path", root, "err", err)
		}
		return space, nil
	}
	space = Space{Total: usage.Total, Free: usage.Free}

	if logger != nil {
		if space.Low() {
			logger.Warn("low free space on output volume", "path", root, "free_mb", space.Free>>20)
		} else {
			logger.Info("output volume", "path", root, "free_mb", space.Free>>20)
		}
	}
	return space, nil
}
