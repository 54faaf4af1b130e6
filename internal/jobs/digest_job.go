package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"pixiu/internal/digest"
	"pixiu/internal/models"
	"pixiu/internal/sources"
)

// DigestJob composes and delivers the daily digest. It runs the comic
// sync as part of the same cycle because new chapters only matter as a
// digest section.
type DigestJob struct {
	composer *digest.Composer
	comics   *sources.ComicSync
	notifier digest.Notifier
	mailer   digest.Mailer
}

// NewDigestJob creates a new digest job. comics and mailer may be nil.
func NewDigestJob(composer *digest.Composer, comics *sources.ComicSync, notifier digest.Notifier, mailer digest.Mailer) *DigestJob {
	return &DigestJob{
		composer: composer,
		comics:   comics,
		notifier: notifier,
		mailer:   mailer,
	}
}

// Run executes one digest cycle.
func (j *DigestJob) Run(ctx context.Context) error {
	startTime := time.Now()
	log.Println("[DIGEST] Composing daily digest...")

	var chapters []models.Chapter
	if j.comics != nil {
		var err error
		chapters, err = j.comics.Cycle(ctx)
		if err != nil {
			// Best-effort: the digest still goes out without the failed comics.
			log.Printf("[DIGEST] Comic sync incomplete: %v", err)
		}
	}

	doc, err := j.composer.Compose(ctx, chapters)
	if err != nil {
		return fmt.Errorf("failed to compose digest: %w", err)
	}

	if err := j.notifier.Notify(ctx, doc.Subject); err != nil {
		log.Printf("[DIGEST] Notification push failed: %v", err)
	}

	if j.mailer != nil {
		if err := j.mailer.Send(ctx, doc.Subject, doc.HTML, doc.Attachments); err != nil {
			return fmt.Errorf("failed to deliver digest: %w", err)
		}
	}

	log.Printf("[DIGEST] Digest delivered in %v", time.Since(startTime))
	return nil
}
