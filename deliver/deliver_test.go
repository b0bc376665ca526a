package deliver

import (
	"errors"
	"testing"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) Copy(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

type fakePaster struct {
	calls int
	err   error
}

func (f *fakePaster) Paste() error {
	if f.err != nil {
		return f.err
	}
	f.calls++
	return nil
}

func TestDeliverCopiesAndPastes(t *testing.T) {
	clip := &fakeClipboard{}
	paster := &fakePaster{}
	d := NewWith(clip, paster)

	if err := d.Deliver("hello", true); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if clip.text != "hello" {
		t.Errorf("clipboard = %q, want %q", clip.text, "hello")
	}
	if paster.calls != 1 {
		t.Errorf("paste calls = %d, want 1", paster.calls)
	}
}

func TestDeliverClipboardOnly(t *testing.T) {
	clip := &fakeClipboard{}
	paster := &fakePaster{}
	d := NewWith(clip, paster)

	if err := d.Deliver("hello", false); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if paster.calls != 0 {
		t.Errorf("paste calls = %d, want 0", paster.calls)
	}
}

func TestDeliverClipboardFailureSkipsPaste(t *testing.T) {
	clip := &fakeClipboard{err: errors.New("no display")}
	paster := &fakePaster{}
	d := NewWith(clip, paster)

	err := d.Deliver("hello", true)
	if !errors.Is(err, ErrClipboard) {
		t.Fatalf("err = %v, want ErrClipboard", err)
	}
	if paster.calls != 0 {
		t.Error("paste must not fire after a failed clipboard write")
	}
}

func TestDeliverPasteFailureKeepsClipboard(t *testing.T) {
	clip := &fakeClipboard{}
	paster := &fakePaster{err: errors.New("uinput denied")}
	d := NewWith(clip, paster)

	err := d.Deliver("hello", true)
	if !errors.Is(err, ErrPaste) {
		t.Fatalf("err = %v, want ErrPaste", err)
	}
	if clip.text != "hello" {
		t.Error("clipboard write must survive a paste failure")
	}
}
