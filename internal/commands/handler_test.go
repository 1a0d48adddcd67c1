package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/albumbot/internal/album"
	"github.com/memohai/albumbot/internal/channel"
	"github.com/memohai/albumbot/internal/imgur"
	"github.com/memohai/albumbot/internal/transfer"
)

// fakeAlbums is an in-memory image host: albums by id, owner per album.
type fakeAlbums struct {
	owner    string
	albums   map[string]imgur.Album
	fetches  []string
	created  []createdAlbum
	attached map[string][]string
	nextID   int
}

type createdAlbum struct {
	ID    string
	Title string
	IDs   []string
}

func newFakeAlbums() *fakeAlbums {
	return &fakeAlbums{owner: "albumbot", albums: map[string]imgur.Album{}, attached: map[string][]string{}}
}

func (f *fakeAlbums) Fetch(_ context.Context, id string) (imgur.Album, error) {
	f.fetches = append(f.fetches, id)
	a, ok := f.albums[id]
	if !ok {
		return imgur.Album{}, &imgur.APIError{Method: http.MethodGet, Path: "album/" + id, Status: http.StatusNotFound}
	}
	return a, nil
}

func (f *fakeAlbums) EnsureOwned(a imgur.Album) error {
	if a.AccountURL != f.owner {
		return album.ErrNotOwned
	}
	return nil
}

func (f *fakeAlbums) Create(_ context.Context, title string, ids []string) (string, error) {
	f.nextID++
	id := fmt.Sprintf("New%d", f.nextID)
	f.created = append(f.created, createdAlbum{ID: id, Title: title, IDs: append([]string(nil), ids...)})
	return id, nil
}

func (f *fakeAlbums) Attach(_ context.Context, albumID string, ids []string) error {
	f.attached[albumID] = append(f.attached[albumID], ids...)
	return nil
}

func (f *fakeAlbums) mutations() int {
	n := len(f.created)
	for _, ids := range f.attached {
		n += len(ids)
	}
	return n
}

// fakeDownloader writes the URL as file content; URLs listed in fail return a 404.
type fakeDownloader struct {
	calls []string
	fail  map[string]bool
}

func (d *fakeDownloader) Download(_ context.Context, url, dest string) error {
	d.calls = append(d.calls, url)
	if d.fail[url] {
		return &transfer.HTTPError{URL: url, Status: http.StatusNotFound}
	}
	return os.WriteFile(dest, []byte(url), 0o600)
}

// fakeUploader checks that the file exists and returns sequential ids.
type fakeUploader struct {
	t       *testing.T
	inputs  []imgur.UploadInput
	failOn  map[int]error
	counter int
}

func (u *fakeUploader) Upload(_ context.Context, in imgur.UploadInput) (string, error) {
	u.counter++
	u.inputs = append(u.inputs, in)
	if _, err := os.Stat(in.Path); err != nil {
		u.t.Errorf("upload of missing file %s: %v", in.Path, err)
	}
	if err := u.failOn[u.counter]; err != nil {
		return "", err
	}
	return fmt.Sprintf("img%d", u.counter), nil
}

type fixture struct {
	handler    *Handler
	albums     *fakeAlbums
	downloader *fakeDownloader
	uploader   *fakeUploader
	root       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		albums:     newFakeAlbums(),
		downloader: &fakeDownloader{fail: map[string]bool{}},
		uploader:   &fakeUploader{t: t, failOn: map[int]error{}},
		root:       t.TempDir(),
	}
	f.handler = NewHandler(nil, f.albums, f.uploader, f.downloader, f.root)
	return f
}

func (f *fixture) networkCalls() int {
	return len(f.albums.fetches) + len(f.downloader.calls) + len(f.uploader.inputs) + f.albums.mutations()
}

// assertScratchClean fails when anything is left under the scratch root.
func (f *fixture) assertScratchClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.root)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch root should be empty")
}

func image(name string) channel.Attachment {
	return channel.Attachment{URL: "https://cdn.discordapp.com/attachments/1/2/" + name, Name: name, ContentType: "image/png"}
}

func TestInvalidAlbumURLMakesNoCalls(t *testing.T) {
	inputs := []string{"", "imgur.com/a/abc", "http://imgur.com/a/abc", "https://imgur.com/gallery/abc", "https://evil.example/a/abc"}
	for _, in := range inputs {
		f := newFixture(t)
		ctx := context.Background()

		res, err := f.handler.AddImageToAlbum(ctx, AddImageInput{AlbumURL: in, Attachment: image("cat.png")})
		require.NoError(t, err)
		assert.Equal(t, Rejected(MsgInvalidAlbumURL), res)

		res, err = f.handler.CloneAlbum(ctx, in, "copy")
		require.NoError(t, err)
		assert.Equal(t, Rejected(MsgInvalidAlbumURL), res)

		assert.Zero(t, f.networkCalls(), in)
		f.assertScratchClean(t)
	}
}

func TestAddImageRejectsUnsupportedMedia(t *testing.T) {
	f := newFixture(t)
	att := channel.Attachment{URL: "https://cdn.example/doc.pdf", ContentType: "application/pdf"}
	res, err := f.handler.AddImageToAlbum(context.Background(), AddImageInput{AlbumURL: "https://imgur.com/a/AbC12", Attachment: att})
	require.NoError(t, err)
	assert.Equal(t, Rejected(MsgUnsupportedMedia), res)
	assert.Zero(t, f.networkCalls())
}

func TestAddImageRejectsForeignAlbum(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["AbC12"] = imgur.Album{ID: "AbC12", AccountURL: "someone-else"}

	res, err := f.handler.AddImageToAlbum(context.Background(), AddImageInput{
		AlbumURL:   "https://imgur.com/a/AbC12",
		Attachment: image("cat.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, "The album is not owned by the bot.", res.Message)
	assert.Zero(t, f.albums.mutations())
	assert.Empty(t, f.downloader.calls)
	assert.Empty(t, f.uploader.inputs)
	f.assertScratchClean(t)
}

func TestAddImageToAlbum(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["AbC12"] = imgur.Album{ID: "AbC12", AccountURL: "albumbot"}

	res, err := f.handler.AddImageToAlbum(context.Background(), AddImageInput{
		AlbumURL:    "https://imgur.com/a/AbC12",
		Attachment:  image("cat.png"),
		Description: "a cat",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "Album updated https://imgur.com/a/AbC12", res.Message)
	assert.Equal(t, []string{"img1"}, f.albums.attached["AbC12"])
	assert.Empty(t, f.albums.created)

	require.Len(t, f.uploader.inputs, 1)
	assert.Equal(t, "a cat", f.uploader.inputs[0].Description)
	assert.Equal(t, "cat.png", f.uploader.inputs[0].Name)
	f.assertScratchClean(t)
}

func TestAddImageUploadFailureCleansUp(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["AbC12"] = imgur.Album{ID: "AbC12", AccountURL: "albumbot"}
	f.uploader.failOn[1] = &imgur.APIError{Status: http.StatusBadRequest}

	_, err := f.handler.AddImageToAlbum(context.Background(), AddImageInput{
		AlbumURL:   "https://imgur.com/a/AbC12",
		Attachment: image("cat.png"),
	})
	var apiErr *imgur.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, f.albums.mutations())
	f.assertScratchClean(t)
}

func TestAddImageMissingAlbum(t *testing.T) {
	f := newFixture(t)
	_, err := f.handler.AddImageToAlbum(context.Background(), AddImageInput{
		AlbumURL:   "https://imgur.com/a/gone",
		Attachment: image("cat.png"),
	})
	assert.ErrorIs(t, err, imgur.ErrNotFound)
	assert.Zero(t, f.albums.mutations())
}

func TestCreateAlbumEndToEnd(t *testing.T) {
	f := newFixture(t)
	msg := channel.InboundMessage{
		Text:        "!create album my trip",
		Attachments: []channel.Attachment{image("beach.png"), image("sunset.jpg")},
	}

	res, handled, err := f.handler.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	require.True(t, handled)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "Album uploaded https://imgur.com/a/New1", res.Message)

	require.Len(t, f.albums.created, 1)
	assert.Equal(t, createdAlbum{ID: "New1", Title: "my trip", IDs: []string{"img1", "img2"}}, f.albums.created[0])
	assert.Equal(t, 2, res.Uploaded())
	for _, in := range f.uploader.inputs {
		assert.Empty(t, in.Description)
	}
	f.assertScratchClean(t)
}

func TestCreateAlbumSkipsUnsupportedAttachments(t *testing.T) {
	f := newFixture(t)
	msg := channel.InboundMessage{
		Text: "!create album mixed",
		Attachments: []channel.Attachment{
			{URL: "https://cdn.example/notes.txt", ContentType: "text/plain"},
			{URL: "https://cdn.example/clip.mp4", ContentType: "video/mp4"},
		},
	}
	res, err := f.handler.CreateAlbumFromAttachments(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"https://cdn.example/clip.mp4"}, f.downloader.calls)
	assert.Equal(t, "clip.mp4", f.uploader.inputs[0].Name)
}

func TestCreateAlbumRejections(t *testing.T) {
	f := newFixture(t)
	res, handled, err := f.handler.HandleMessage(context.Background(), channel.InboundMessage{Text: "!create album empty"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, Rejected(MsgNoAttachments), res)

	res, err = f.handler.CreateAlbumFromAttachments(context.Background(), channel.InboundMessage{
		Text:        "!create album docs",
		Attachments: []channel.Attachment{{URL: "https://cdn.example/a.pdf", ContentType: "application/pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, Rejected(MsgNoSupportedMedia), res)
	assert.Zero(t, f.networkCalls())
	f.assertScratchClean(t)
}

func TestCreateAlbumDownloadFailureAborts(t *testing.T) {
	f := newFixture(t)
	second := image("two.png")
	f.downloader.fail[second.URL] = true

	_, err := f.handler.CreateAlbumFromAttachments(context.Background(), channel.InboundMessage{
		Text:        "!create album broken",
		Attachments: []channel.Attachment{image("one.png"), second},
	})
	var httpErr *transfer.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Empty(t, f.albums.created)
	f.assertScratchClean(t)
}

func sourceAlbum(n int) imgur.Album {
	a := imgur.Album{ID: "Src", AccountURL: "someone"}
	for i := 1; i <= n; i++ {
		a.Images = append(a.Images, imgur.Image{
			ID:          fmt.Sprintf("s%d", i),
			Link:        fmt.Sprintf("https://i.imgur.com/s%d.jpg", i),
			Description: fmt.Sprintf("desc %d", i),
		})
	}
	return a
}

func TestCloneAlbumSkipsFailedUpload(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["Src"] = sourceAlbum(3)
	f.uploader.failOn[2] = &imgur.APIError{Method: http.MethodPost, Path: "upload", Status: http.StatusBadRequest}

	res, err := f.handler.CloneAlbum(context.Background(), "https://imgur.com/a/Src", "copy")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, 2, res.Uploaded())
	assert.Equal(t, 1, res.Skipped())
	assert.Equal(t, "Album uploaded https://imgur.com/a/New1. Uploaded items 2, Skipped items 1", res.Message)

	require.Len(t, f.albums.created, 1)
	assert.Equal(t, []string{"img1", "img3"}, f.albums.created[0].IDs)
	assert.Equal(t, "copy", f.albums.created[0].Title)

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "https://i.imgur.com/s2.jpg", res.Outcomes[1].Source)
	assert.Error(t, res.Outcomes[1].Err)

	descriptions := []string{}
	for _, in := range f.uploader.inputs {
		descriptions = append(descriptions, in.Description)
	}
	assert.Equal(t, []string{"desc 1", "desc 2", "desc 3"}, descriptions)
	f.assertScratchClean(t)
}

func TestCloneAlbumSkipsFailedDownload(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["Src"] = sourceAlbum(2)
	f.downloader.fail["https://i.imgur.com/s1.jpg"] = true

	res, err := f.handler.CloneAlbum(context.Background(), "https://imgur.com/a/Src", "copy")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Uploaded())
	assert.Equal(t, 1, res.Skipped())
	assert.Equal(t, []string{"img1"}, f.albums.created[0].IDs)
	f.assertScratchClean(t)
}

func TestCloneAlbumAbortsOnAuthFailure(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["Src"] = sourceAlbum(2)
	f.uploader.failOn[1] = fmt.Errorf("%w: token revoked", imgur.ErrAuth)

	_, err := f.handler.CloneAlbum(context.Background(), "https://imgur.com/a/Src", "copy")
	assert.ErrorIs(t, err, imgur.ErrAuth)
	assert.Empty(t, f.albums.created)
	f.assertScratchClean(t)
}

func TestCloneAlbumAbortsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["Src"] = sourceAlbum(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.uploader.failOn[1] = &imgur.APIError{Status: http.StatusBadGateway}

	_, err := f.handler.CloneAlbum(ctx, "https://imgur.com/a/Src", "copy")
	assert.Error(t, err)
	assert.Empty(t, f.albums.created)
	f.assertScratchClean(t)
}

func TestHandleMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		text    string
		bot     bool
		handled bool
	}{
		{text: "miss is a bot", handled: true},
		{text: "MMMISS IS BOT", handled: true},
		{text: "mis is a bot, right?", handled: true},
		{text: strings.Repeat("m", 14) + "is is a bot", handled: false},
		{text: "hey, miss is a bot", handled: false},
		{text: "misss is a bot", handled: false},
		{text: "miss is a bot", bot: true, handled: false},
		{text: "", handled: false},
		{text: "hello there", handled: false},
		{text: "!Create album nope", handled: false},
	}
	for _, tc := range cases {
		res, handled, err := f.handler.HandleMessage(ctx, channel.InboundMessage{
			Text:   tc.text,
			Sender: channel.Identity{IsBot: tc.bot},
		})
		require.NoError(t, err)
		assert.Equal(t, tc.handled, handled, tc.text)
		if handled {
			assert.Equal(t, MsgBotConfirmation, res.Message)
		}
	}
	assert.Zero(t, f.networkCalls())
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["AbC12"] = imgur.Album{ID: "AbC12", AccountURL: "albumbot"}
	f.albums.albums["Src"] = sourceAlbum(1)
	ctx := context.Background()

	res, err := f.handler.Run(ctx, channel.Command{
		Name:        CommandAddImage,
		Options:     map[string]string{OptionAlbumURL: "https://imgur.com/a/AbC12", OptionDescription: "hi"},
		Attachments: map[string]channel.Attachment{OptionImage: image("cat.png")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)

	res, err = f.handler.Run(ctx, channel.Command{
		Name:    CommandClone,
		Options: map[string]string{OptionAlbumURL: "https://imgur.com/a/Src", OptionNewAlbumTitle: "copy"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Message, "Album uploaded https://imgur.com/a/"))

	res, err = f.handler.Run(ctx, channel.Command{Name: CommandAddImage, Options: map[string]string{OptionAlbumURL: "https://imgur.com/a/AbC12"}})
	require.NoError(t, err)
	assert.Equal(t, Rejected(MsgMissingAttachment), res)

	res, err = f.handler.Run(ctx, channel.Command{Name: "nope"})
	require.NoError(t, err)
	assert.Equal(t, Rejected(MsgUnknownCommand), res)
	f.assertScratchClean(t)
}

func TestAlbumTitle(t *testing.T) {
	assert.Equal(t, "my trip", albumTitle("!create album my trip"))
	assert.Equal(t, "my trip", albumTitle("!create   album  my   trip "))
	assert.Equal(t, "", albumTitle("!create album"))
}

func TestScratchDirsAreTimestamped(t *testing.T) {
	f := newFixture(t)
	f.albums.albums["Src"] = sourceAlbum(1)
	fixed := time.Unix(1700000000, 0)
	f.handler.now = func() time.Time { return fixed }

	var seen string
	f.handler.downloader = downloaderFunc(func(ctx context.Context, url, dest string) error {
		seen = filepath.Base(filepath.Dir(dest))
		return os.WriteFile(dest, nil, 0o600)
	})

	_, err := f.handler.CloneAlbum(context.Background(), "https://imgur.com/a/Src", "copy")
	require.NoError(t, err)
	assert.Equal(t, "temp_1700000000", seen)
	f.assertScratchClean(t)
}

type downloaderFunc func(ctx context.Context, url, dest string) error

func (fn downloaderFunc) Download(ctx context.Context, url, dest string) error { return fn(ctx, url, dest) }
