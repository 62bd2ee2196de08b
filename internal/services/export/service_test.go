package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
	"github.com/ezclip/ezclip-api/internal/services/masks"
	"github.com/ezclip/ezclip-api/internal/services/media"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/pkg/editmask"
)

type fakeRenderer struct {
	extracted [][2]float64
	concatTo  string
}

func (f *fakeRenderer) ExtractClip(ctx context.Context, srcPath, dstPath string, start, end float64) error {
	f.extracted = append(f.extracted, [2]float64{start, end})
	return os.WriteFile(dstPath, []byte("clip"), 0644)
}

func (f *fakeRenderer) ConcatClips(ctx context.Context, clips []string, dstPath string) error {
	f.concatTo = dstPath
	return os.WriteFile(dstPath, []byte("joined"), 0644)
}

type testEnv struct {
	media   media.Service
	masks   masks.Service
	mediaID uint
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	jobService := jobs.NewService(jobs.NewRepository(db))
	mediaService := media.NewService(media.NewRepository(db), jobService)
	transcriptService := transcripts.NewService(transcripts.NewRepository(db))
	maskService := masks.NewService(masks.NewRepository(db), transcriptService)

	path := filepath.Join(t.TempDir(), "talk.mp4")
	require.NoError(t, os.WriteFile(path, []byte("source media"), 0644))

	mediaFile, _, err := mediaService.Register(context.Background(), path)
	require.NoError(t, err)

	// Four words with a cutable middle.
	tr := &models.Transcript{
		MediaFileID: mediaFile.ID,
		Segments: []models.Segment{
			{
				Position: 0,
				Speaker:  "SPEAKER_00",
				Start:    0.0,
				End:      4.0,
				Text:     "keep cut cut keep",
				Words: []models.Word{
					{Index: 0, Text: "keep", Start: 0.0, End: 1.0},
					{Index: 1, Text: "cut", Start: 1.0, End: 2.0},
					{Index: 2, Text: "cut", Start: 2.0, End: 3.0},
					{Index: 3, Text: "keep", Start: 3.0, End: 4.0},
				},
			},
		},
	}
	require.NoError(t, transcriptService.Save(context.Background(), tr))

	return &testEnv{media: mediaService, masks: maskService, mediaID: mediaFile.ID}
}

func TestExportTrivialMaskCopies(t *testing.T) {
	env := setupEnv(t)
	renderer := &fakeRenderer{}
	svc := NewService(env.media, env.masks, renderer, t.TempDir(), t.TempDir())

	out, err := svc.Export(context.Background(), env.mediaID, editmask.DefaultGlueGap)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "source media", string(data))
	assert.Empty(t, renderer.extracted, "a copy should not invoke ffmpeg")
	assert.Contains(t, filepath.Base(out), "talk_edit_")
}

func TestExportCutRanges(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.masks.Toggle(ctx, env.mediaID, 1, false)
	require.NoError(t, err)
	_, err = env.masks.Toggle(ctx, env.mediaID, 2, false)
	require.NoError(t, err)

	renderer := &fakeRenderer{}
	svc := NewService(env.media, env.masks, renderer, t.TempDir(), t.TempDir())

	out, err := svc.Export(ctx, env.mediaID, 0)
	require.NoError(t, err)

	require.Len(t, renderer.extracted, 2)
	assert.Equal(t, [2]float64{0.0, 1.0}, renderer.extracted[0])
	assert.Equal(t, [2]float64{3.0, 4.0}, renderer.extracted[1])
	assert.Equal(t, out, renderer.concatTo)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "joined", string(data))
}

func TestExportNothingKept(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := env.masks.Toggle(ctx, env.mediaID, i, false)
		require.NoError(t, err)
	}

	svc := NewService(env.media, env.masks, &fakeRenderer{}, t.TempDir(), t.TempDir())

	_, err := svc.Export(ctx, env.mediaID, 0)
	assert.ErrorIs(t, err, ErrNothingKept)
}

func TestExportUnknownMedia(t *testing.T) {
	env := setupEnv(t)
	svc := NewService(env.media, env.masks, &fakeRenderer{}, t.TempDir(), t.TempDir())

	_, err := svc.Export(context.Background(), 9999, 0)
	assert.True(t, media.IsNotFound(err))
}
