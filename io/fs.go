package io

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateFS defines a file system interface that supports creating files
// and directories. It is used to save assembled program images.
type CreateFS interface {
	// Sub returns a filesystem for a subdirectory.
	Sub(name string) (sub CreateFS, err error)
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
	// Mkdir creates a new directory with the specified permissions.
	Mkdir(name string, filemode fs.FileMode) (err error)
}

// DirFS is a CreateFS rooted at an operating system directory.
type DirFS string

var _ CreateFS = DirFS("")

func (dir DirFS) path(name string) (path string, err error) {
	if !fs.ValidPath(name) {
		err = &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
		return
	}

	path = filepath.Join(string(dir), filepath.FromSlash(name))
	return
}

// Sub returns the filesystem rooted at the name subdirectory.
func (dir DirFS) Sub(name string) (sub CreateFS, err error) {
	path, err := dir.path(name)
	if err != nil {
		return
	}

	sub = DirFS(path)
	return
}

// Create creates or truncates the named file.
func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	path, err := dir.path(name)
	if err != nil {
		return
	}

	file, err = os.Create(path)
	return
}

// Mkdir creates the named directory.
func (dir DirFS) Mkdir(name string, filemode fs.FileMode) (err error) {
	path, err := dir.path(name)
	if err != nil {
		return
	}

	err = os.Mkdir(path, filemode)
	return
}

// LoadRom reads a program image from a filesystem.
func LoadRom(fsys fs.FS, name string) (rom *Rom, err error) {
	defer func() {
		if err != nil {
			rom = nil
			err = &ErrImage{Name: name, Err: err}
		}
	}()

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return
	}

	rom = &Rom{}
	err = rom.UnmarshalBinary(data)

	return
}

// SaveRom writes a program image to a filesystem.
func SaveRom(fsys CreateFS, name string, rom *Rom) (err error) {
	defer func() {
		if err != nil {
			err = &ErrImage{Name: name, Err: err}
		}
	}()

	file, err := fsys.Create(name)
	if err != nil {
		return
	}

	_, err = rom.WriteTo(file)
	if err != nil {
		file.Close()
		return
	}

	err = file.Close()

	return
}
