// Package sweeper reconciles the blob store against the database. The
// relational store and the blob store share no transaction, so a crash
// between the two writes of an upload can leave a blob no row points at.
// The sweep finds and removes those orphans.
package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sem0ark/projecthub/internal/blob"
	"github.com/sem0ark/projecthub/internal/store"
)

type Sweeper struct {
	documents *store.DocumentStore
	projects  *store.ProjectStore
	blobs     blob.Store
	interval  time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func New(documents *store.DocumentStore, projects *store.ProjectStore, blobs blob.Store, interval time.Duration) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		documents: documents,
		projects:  projects,
		blobs:     blobs,
		interval:  interval,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Start launches the periodic sweep loop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	log.Info().Dur("interval", s.interval).Msg("starting blob reconciliation sweep")

	go s.run()
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return
	}

	s.cancel()
	<-s.done
	log.Info().Msg("blob reconciliation sweep stopped")
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if removed, err := s.Sweep(s.ctx); err != nil {
				log.Error().Err(err).Msg("blob sweep failed")
			} else if removed > 0 {
				log.Info().Int("removed", removed).Msg("blob sweep removed orphaned blobs")
			}
		}
	}
}

// Sweep runs a single reconciliation pass and returns how many orphaned
// blobs it removed. Blobs are written only after their DB reference is
// committed, so a blob with no reference is safe to remove.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	blobIDs, err := s.blobs.List(ctx)
	if err != nil {
		return 0, err
	}

	documentIDs, err := s.documents.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	logoIDs, err := s.projects.ListLogoIDs(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]struct{}, len(documentIDs)+len(logoIDs))
	for _, id := range documentIDs {
		referenced[id] = struct{}{}
	}
	for _, id := range logoIDs {
		referenced[id] = struct{}{}
	}

	removed := 0

	for _, id := range blobIDs {
		if _, ok := referenced[id]; ok {
			continue
		}

		if err := s.blobs.Delete(ctx, id); err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				continue
			}
			return removed, err
		}

		log.Debug().Str("blob_id", id).Msg("removed orphaned blob")
		removed++
	}

	return removed, nil
}
