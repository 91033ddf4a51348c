package extract

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsminer/pkg/common/errors"
	"fsminer/pkg/resource"
)

func newTestInfo(t *testing.T) *Info {
	t.Helper()
	info, err := New(NewSubject("/tmp/file42.png"), "file42", "image/png", "graph-a", 500)
	require.NoError(t, err)
	return info
}

func TestNewRoundTripsAllFields(t *testing.T) {
	subject := NewSubject("/tmp/photo.jpeg")
	info, err := New(subject, "urn:uuid:1234", "image/jpeg", "photos", 1024)
	require.NoError(t, err)
	defer info.Unref()

	assert.Same(t, subject, info.File())
	assert.Equal(t, "urn:uuid:1234", info.ContentID(""))
	assert.Equal(t, "image/jpeg", info.Mimetype())
	assert.Equal(t, "photos", info.Graph())
	assert.Equal(t, 1024, info.MaxText())
	assert.Nil(t, info.Resource())
}

func TestNewAllowsEmptyMimetypeAndGraph(t *testing.T) {
	info, err := New(NewSubject("/tmp/x"), "id", "", "", 0)
	require.NoError(t, err)
	defer info.Unref()

	assert.Equal(t, "", info.Mimetype())
	assert.Equal(t, "", info.Graph())
	assert.Equal(t, 0, info.MaxText())
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	_, err := New(nil, "id", "", "", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = New(NewSubject(""), "id", "", "", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = New(NewSubject("/tmp/x"), "", "", "", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = New(NewSubject("/tmp/x"), "id", "", "", -1)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestContentIDSuffix(t *testing.T) {
	info := newTestInfo(t)
	defer info.Unref()

	assert.Equal(t, "file42", info.ContentID(""))
	assert.Equal(t, "file42/part1", info.ContentID("part1"))
	assert.Equal(t, "file42/track-3", info.ContentID("track-3"))
	assert.NotEqual(t, info.ContentID("a"), info.ContentID("b"))
}

func TestSetResourceExchangeOnce(t *testing.T) {
	info := newTestInfo(t)
	defer info.Unref()

	r := resource.New("file42")
	require.NoError(t, info.SetResource(r))
	assert.Same(t, r, info.Resource())

	err := info.SetResource(resource.New("file42"))
	assert.ErrorIs(t, err, ErrResourceAttached)
	assert.Same(t, r, info.Resource())
}

func TestSetResourceRejectsNil(t *testing.T) {
	info := newTestInfo(t)
	defer info.Unref()

	assert.ErrorIs(t, info.SetResource(nil), errors.ErrInvalidInput)
}

func TestUnrefReleasesSubjectExactlyOnce(t *testing.T) {
	released := 0
	subject := NewSubject("/tmp/x")
	subject.OnRelease(func() { released++ })

	info, err := New(subject, "id", "", "", 0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		info.Ref()
	}
	for i := 0; i < 5; i++ {
		info.Unref()
		assert.Equal(t, 0, released)
	}
	info.Unref()
	assert.Equal(t, 1, released)
}

func TestUseAfterDestroyPanics(t *testing.T) {
	info := newTestInfo(t)
	info.Unref()

	assert.Panics(t, func() { info.ContentID("") })
	assert.Panics(t, func() { info.File() })
	assert.Panics(t, func() { info.Ref() })
}

func TestConcurrentRefUnref(t *testing.T) {
	const workers = 16
	const pairs = 1000

	var released int
	subject := NewSubject("/tmp/x")
	subject.OnRelease(func() { released++ })

	info, err := New(subject, "id", "", "", 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < pairs; i++ {
				info.Ref()
				info.Unref()
			}
		}()
	}
	wg.Wait()

	// The original holder's reference keeps the carrier alive throughout.
	assert.Equal(t, 0, released)
	assert.Equal(t, "id", info.ContentID(""))

	info.Unref()
	assert.Equal(t, 1, released)
}

func TestEndToEndScenario(t *testing.T) {
	info, err := New(NewSubject("/tmp/file42"), "file42", "", "", 500)
	require.NoError(t, err)
	defer info.Unref()

	r := resource.New("file42")
	require.NoError(t, info.SetResource(r))

	assert.Same(t, r, info.Resource())
	assert.Equal(t, 500, info.MaxText())
	assert.Equal(t, "file42", info.ContentID(""))
	assert.Equal(t, "file42/part1", info.ContentID("part1"))
}
