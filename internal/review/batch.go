package review

import "github.com/tally-dev/tally/internal/model"

// Batch is the queue of candidates produced by one import. Items leave
// only from the head; the original length never changes.
type Batch struct {
	originalLength int
	queue          []model.CandidateOperation
}

// NewBatch copies cands into a new Batch.
func NewBatch(cands []model.CandidateOperation) *Batch {
	queue := make([]model.CandidateOperation, len(cands))
	copy(queue, cands)
	return &Batch{originalLength: len(cands), queue: queue}
}

// OriginalLength is the number of candidates the batch was created with.
func (b *Batch) OriginalLength() int { return b.originalLength }

// Len is the number of candidates still queued.
func (b *Batch) Len() int { return len(b.queue) }

// Position is the 1-based index of the head within the original batch.
func (b *Batch) Position() int { return b.originalLength - len(b.queue) + 1 }

// Head returns the candidate under review.
func (b *Batch) Head() (model.CandidateOperation, bool) {
	if len(b.queue) == 0 {
		return model.CandidateOperation{}, false
	}
	return b.queue[0], true
}

// setHeadDraft records the enrichment submitted for the head.
func (b *Batch) setHeadDraft(d model.OperationDraft) {
	if len(b.queue) > 0 {
		b.queue[0].Operation = d
	}
}

func (b *Batch) pop() {
	if len(b.queue) > 0 {
		b.queue = b.queue[1:]
	}
}
