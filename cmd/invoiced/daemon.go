package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/async"
	"github.com/joseph-ayodele/invoice-parser/internal/export"
	"github.com/joseph-ayodele/invoice-parser/internal/ingest"
	"github.com/joseph-ayodele/invoice-parser/internal/pipeline"
)

// documentProcessor is the part of pipeline.Processor the daemon needs.
type documentProcessor interface {
	Process(ctx context.Context, doc pipeline.Document) pipeline.Result
}

type daemon struct {
	inbox    string
	outbox   string
	fallback constants.DocumentType
	proc     documentProcessor
	xlsx     *export.Service
	dedup    ingest.Dedup
	logger   *slog.Logger
}

// docTypeFor picks the type from the first directory below the inbox, e.g.
// inbox/timesheet/march.pdf. Files directly in the inbox, or under an unknown
// directory name, get the fallback type.
func (d *daemon) docTypeFor(path string) constants.DocumentType {
	rel, err := filepath.Rel(d.inbox, path)
	if err != nil {
		return d.fallback
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return d.fallback
	}
	if dt, ok := constants.LookupDocumentType(parts[0]); ok {
		return dt
	}
	return d.fallback
}

// handle processes one queued file and writes <stem>.md and <stem>.xlsx to the outbox.
// A failed document still gets its .md with the error line; its hash is forgotten
// so dropping the same file again retries it.
func (d *daemon) handle(ctx context.Context, job async.Job) error {
	doc, err := pipeline.ReadDocument(job.Path, job.DocType)
	if err != nil {
		d.dedup.Forget(job.HashHex)
		return err
	}
	res := d.proc.Process(ctx, doc)
	if res.Err != nil {
		d.dedup.Forget(job.HashHex)
	}

	stem := strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
	var report bytes.Buffer
	if err := pipeline.WriteReport(&report, []pipeline.Result{res}); err != nil {
		return err
	}
	mdPath := filepath.Join(d.outbox, stem+".md")
	if err := os.WriteFile(mdPath, report.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}

	if res.Err == nil {
		raw, err := d.xlsx.WorkbookXLSX([]export.Reply{{Document: doc.Name, Content: res.Reply}})
		if err != nil {
			return fmt.Errorf("build workbook: %w", err)
		}
		xlsxPath := filepath.Join(d.outbox, stem+".xlsx")
		if err := os.WriteFile(xlsxPath, raw, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", xlsxPath, err)
		}
	}

	d.logger.Info("outbox written", "document", doc.Name, "doc_type", job.DocType.String(), "trace_id", job.TraceID, "ok", res.Err == nil)
	return res.Err
}
