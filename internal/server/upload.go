package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/memobloom/memobloom/internal/media"
)

var errMediaDisabled = errors.New("media uploads are not configured")

// uploadOverhead allows for multipart framing around the file itself.
const uploadOverhead = 1 << 20

// fileOnlyFS serves regular files and hides directories, so the media
// folder can't be listed.
type fileOnlyFS struct{ http.FileSystem }

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if st.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// handleUpload stores a photo or voice recording and returns the reference
// to save as the memory's content.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.media == nil {
		s.writeError(w, r, errMediaDisabled)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.media.MaxBytes()+uploadOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.writeError(w, r, err)
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	kind := media.Kind(r.FormValue("kind"))
	if kind != media.KindPhoto && kind != media.KindVoice {
		s.writeError(w, r, fmt.Errorf("%w: kind must be photo or voice", errBadRequest))
		return
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: file is required", errBadRequest))
		return
	}
	defer f.Close()

	saved, err := s.media.Save(r.Context(), f, kind)
	if s.metrics != nil {
		result := "ok"
		if err != nil {
			result = "rejected"
		}
		s.metrics.MediaUploads.WithLabelValues(string(kind), result).Inc()
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}
