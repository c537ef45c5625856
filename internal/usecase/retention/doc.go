// Package retention selects media for removal from a Dendrite media
// repository and deletes it from the catalog and the filesystem.
//
// A run is single-threaded: candidates are processed one after another and
// each deletion commits its own catalog transaction before the files are
// unlinked. There is no locking. The scheduler that invokes cleanmedia must
// not start a run while another one is still going; nothing here detects
// overlapping runs. A run killed midway leaves every item it already
// committed deleted and every other item untouched, so re-running is safe.
package retention
