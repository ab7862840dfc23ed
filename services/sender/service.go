package sender

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/pkg/errors"

	"github.com/pwalczyk/mailvault/config"
	"github.com/pwalczyk/mailvault/internal/logger"
)

// Service mails the PDFs collected for the current invoice month to the
// configured recipient, one message per file so oversized batches never trip
// server size limits.
type Service struct {
	log  logger.Logger
	cfg  *config.SMTPConfig
	send func(e *email.Email, addr string, auth smtp.Auth, tlsCfg *tls.Config) error
}

func NewService(log logger.Logger, cfg *config.SMTPConfig) *Service {
	return &Service{
		log: log,
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth, tlsCfg *tls.Config) error {
			return e.SendWithStartTLS(addr, auth, tlsCfg)
		},
	}
}

// CollectPDFs lists the PDF files directly inside dir, sorted by name.
// A missing directory means nothing was collected yet and is not an error.
func CollectPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SendDirectory mails every PDF in dir. With dryRun the files are only listed.
// The first failed message aborts the batch; already-sent messages stay sent.
func (s *Service) SendDirectory(dir string, dryRun bool) error {
	files, err := CollectPDFs(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		s.log.Infof("No PDF files found in %s, nothing to send", dir)
		return nil
	}

	if dryRun {
		for _, file := range files {
			s.log.Infof("Would send %s to %s", file, s.cfg.To)
		}
		return nil
	}

	if err := s.validate(); err != nil {
		return err
	}

	for _, file := range files {
		if err := s.sendFile(file); err != nil {
			return err
		}
		s.log.Infof("Sent %s to %s", filepath.Base(file), s.cfg.To)
	}
	return nil
}

func (s *Service) validate() error {
	switch {
	case s.cfg.Server == "":
		return errors.New("SMTP server is not configured")
	case s.cfg.From == "":
		return errors.New("sender address is not configured")
	case s.cfg.To == "":
		return errors.New("recipient address is not configured")
	}
	return nil
}

func (s *Service) sendFile(path string) error {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{s.cfg.To}
	e.Subject = fmt.Sprintf("%s: %s", s.cfg.Subject, filepath.Base(path))
	e.Text = []byte(s.cfg.Body)

	if _, err := e.AttachFile(path); err != nil {
		return errors.Wrapf(err, "failed to attach %s", path)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
	tlsCfg := &tls.Config{ServerName: s.cfg.Server}

	if err := s.send(e, addr, auth, tlsCfg); err != nil {
		return errors.Wrapf(err, "failed to send %s", filepath.Base(path))
	}
	return nil
}
