// Package storage manages the per-user media directories.
//
// A Manager owns one directory. Writes stream through a fixed-size buffer
// into a temporary .part file which is renamed into place once complete, so a
// reader never sees a half-written media file. Reserve hands out file paths so
// that concurrent downloads sharing a name do not clobber each other.
//
//	manager, err := storage.NewManager(filepath.Join("snap_media", "alice"))
//	if err != nil {
//	    return err
//	}
//	path, release := manager.Reserve("clip.mp4")
//	defer release()
//	n, err := manager.Write(body, path, 32*1024)
package storage
