package mail

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/dlrntm-png/bangguy/config"
)

// Sender 邮件发送接口
// 清理预览通知使用；发送失败只记录日志，不影响主流程
type Sender interface {
	Send(to []string, subject, htmlBody, textBody string) error
}

// SMTPSender 基于 SMTP 的 Sender 实现
type SMTPSender struct {
	cfg    *config.MailConfig
	logger *zap.Logger
}

// NewSMTPSender 创建 SMTP 邮件发送器
func NewSMTPSender(cfg *config.MailConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

func (s *SMTPSender) Send(to []string, subject, htmlBody, textBody string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("未配置 SMTP 服务器")
	}

	from := s.cfg.From
	if from == "" {
		from = "noreply@attendance.local"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := gomail.NewDialer(s.cfg.SMTPHost, s.cfg.SMTPPort, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	s.logger.Info("通知邮件已发送", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
