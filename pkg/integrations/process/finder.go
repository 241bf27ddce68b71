package process

import (
	"context"

	"github.com/pkg/errors"
	gops "github.com/shirou/gopsutil/v4/process"
)

// Table is a snapshot of the OS process table
type Table interface {
	// Refresh replaces the snapshot with the current process list
	Refresh(ctx context.Context) error

	// ByExactName returns the pids in the snapshot whose name equals name,
	// in snapshot order
	ByExactName(ctx context.Context, name string) []int32
}

// Finder looks up the monitored process by name
type Finder struct {
	table Table
}

// NewFinder creates a finder over the given table
func NewFinder(table Table) *Finder {
	return &Finder{table: table}
}

// Find refreshes the snapshot and returns the first process named exactly
// name. The match is case-sensitive; found is false when nothing matches.
func (f *Finder) Find(ctx context.Context, name string) (int32, bool, error) {
	if err := f.table.Refresh(ctx); err != nil {
		return 0, false, errors.Wrap(err, "failed to refresh process table")
	}

	pids := f.table.ByExactName(ctx, name)
	if len(pids) == 0 {
		return 0, false, nil
	}
	return pids[0], true, nil
}

// SystemTable reads the live process table through gopsutil. Refresh only
// lists pids; names are read per process during the scan.
type SystemTable struct {
	procs []*gops.Process
}

func NewSystemTable() *SystemTable {
	return &SystemTable{}
}

func (t *SystemTable) Refresh(ctx context.Context) error {
	procs, err := gops.ProcessesWithContext(ctx)
	if err != nil {
		return err
	}
	t.procs = procs
	return nil
}

func (t *SystemTable) ByExactName(ctx context.Context, name string) []int32 {
	var pids []int32
	for _, p := range t.procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			// exited since Refresh, or not readable by us
			continue
		}
		if n == name {
			pids = append(pids, p.Pid)
		}
	}
	return pids
}
