package scoreboardhandlers

import (
	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	scoreboardpublishers "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/publishers"
)

type FakeSnapshots struct {
	Docs      scoreboardpublishers.Documents
	PNG       []byte
	Snap      scoreboarddomain.Snapshot
	Published bool
}

func (f *FakeSnapshots) Latest() (scoreboardpublishers.Documents, bool) { return f.Docs, f.Published }

func (f *FakeSnapshots) Chart() ([]byte, bool) { return f.PNG, len(f.PNG) > 0 }

func (f *FakeSnapshots) Snapshot() (scoreboarddomain.Snapshot, bool) { return f.Snap, f.Published }

type FakeUnknown struct {
	Reports []scoreboarddomain.UnknownStatusReport
}

func (f *FakeUnknown) UnknownStatuses() []scoreboarddomain.UnknownStatusReport { return f.Reports }
