package engine

// Progress is an advisory status event. Percent runs from 0 to 100.
type Progress struct {
	Material string  `json:"material,omitempty"`
	Message  string  `json:"message"`
	Percent  float64 `json:"percent"`
}

func (n *Nester) emit(p Progress) {
	if n.progress == nil {
		return
	}
	select {
	case n.progress <- p:
	default:
	}
}

// progressTracker counts parts that have been decided, placed or not.
type progressTracker struct {
	done  int
	total int
}

func (t *progressTracker) percent() float64 {
	if t.total == 0 {
		return 100
	}
	pct := float64(t.done) / float64(t.total) * 100.0
	if pct > 100 {
		return 100
	}
	return pct
}
