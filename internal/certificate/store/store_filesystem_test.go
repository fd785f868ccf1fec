package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"lgac/pkg/platform/sentinel"
)

type FilesystemStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Filesystem
}

func TestFilesystemStoreSuite(t *testing.T) {
	suite.Run(t, new(FilesystemStoreSuite))
}

func (s *FilesystemStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewFilesystem(s.T().TempDir())
}

func (s *FilesystemStoreSuite) TestPutGetRoundTrip() {
	s.Require().NoError(s.store.Put(s.ctx, "certificates/lgac_42_abcdef123456.pdf", []byte("%PDF-1.7")))

	data, err := s.store.Get(s.ctx, "certificates/lgac_42_abcdef123456.pdf")
	s.Require().NoError(err)
	s.Equal([]byte("%PDF-1.7"), data)
}

func (s *FilesystemStoreSuite) TestPutCreatesNestedDirectories() {
	s.Require().NoError(s.store.Put(s.ctx, "assets/lgas/aks/seal.png", []byte{0x89, 'P', 'N', 'G'}))

	exists, err := s.store.Exists(s.ctx, "assets/lgas/aks/seal.png")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *FilesystemStoreSuite) TestGetMissingReturnsNotFound() {
	_, err := s.store.Get(s.ctx, "certificates/nope.pdf")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *FilesystemStoreSuite) TestExistsMissing() {
	exists, err := s.store.Exists(s.ctx, "certificates/nope.pdf")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *FilesystemStoreSuite) TestRejectsTraversalKeys() {
	for _, key := range []string{"../outside.pdf", "/etc/passwd", "a/../../b"} {
		s.Run(key, func() {
			s.Require().Error(s.store.Put(s.ctx, key, []byte("x")))
			_, err := s.store.Get(s.ctx, key)
			s.Require().Error(err)
			s.NotErrorIs(err, sentinel.ErrNotFound)
		})
	}
}

func (s *FilesystemStoreSuite) TestOverwriteKeepsLatest() {
	s.Require().NoError(s.store.Put(s.ctx, "k", []byte("one")))
	s.Require().NoError(s.store.Put(s.ctx, "k", []byte("two")))

	data, err := s.store.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal([]byte("two"), data)
}

func (s *FilesystemStoreSuite) TestFilesLandUnderRoot() {
	root := s.T().TempDir()
	fsStore := NewFilesystem(root)
	s.Require().NoError(fsStore.Put(s.ctx, "certificates/doc.pdf", []byte("x")))

	_, err := os.Stat(filepath.Join(root, "certificates", "doc.pdf"))
	s.Require().NoError(err)
}
