package model

import "testing"

func TestPendingFindReportNotFound(t *testing.T) {
	pf := NewPendingFind("doc-1", []ChannelId{1, 2, 3})

	if done := pf.ReportNotFound(1); done {
		t.Fatalf("expected find to remain pending after first report")
	}
	if done := pf.ReportNotFound(2); done {
		t.Fatalf("expected find to remain pending after second report")
	}
	if done := pf.ReportNotFound(3); !done {
		t.Fatalf("expected find to resolve once every channel reported")
	}

	if len(pf.AwaitingChannels) != 0 {
		t.Fatalf("expected no channels left awaiting, got %v", pf.AwaitingChannels)
	}
}

func TestPendingFindReportAnswered(t *testing.T) {
	pf := NewPendingFind("doc-1", []ChannelId{1, 2})
	pf.ReportAnswered(1)
	if _, ok := pf.AwaitingChannels[1]; ok {
		t.Fatalf("expected channel 1 to be removed")
	}
	if _, ok := pf.AwaitingChannels[2]; !ok {
		t.Fatalf("expected channel 2 to remain")
	}
}

func TestPendingFindReportNotFoundIdempotent(t *testing.T) {
	pf := NewPendingFind("doc-1", []ChannelId{1})
	if done := pf.ReportNotFound(1); !done {
		t.Fatalf("expected find to resolve")
	}
	if done := pf.ReportNotFound(1); !done {
		t.Fatalf("expected repeated report on an empty set to stay resolved")
	}
}
