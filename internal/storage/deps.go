package storage

import (
	"io/fs"
	"os"
)

type fileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	Remove(name string) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

type osFS struct{}

func (osFS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (osFS) Remove(name string) error                   { return os.Remove(name) }
func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
