package notifier

import (
	"context"
	"log"
	"os"

	"intern-hub/internal/model"
)

// LogNotifier 仅打印新发布的岗位，适合开发阶段使用。
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier 创建日志通知器，未提供 logger 时默认输出到标准输出。
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

// Notify 逐条打印新岗位信息。
func (n LogNotifier) Notify(ctx context.Context, internships []model.Internship) error {
	if len(internships) == 0 {
		return nil
	}
	for _, i := range internships {
		company := ""
		if i.Company != nil {
			company = i.Company.Name
		}
		n.logger.Printf("new internship: %s @ %s (%s)", i.Title, company, i.Location)
	}
	return nil
}
