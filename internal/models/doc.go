// Package models defines the persisted entities of djtools and the repository interface used to store them.
//
// [Run] records one invocation of the playlist builder: the input and output documents, its final
// [RunStatus], the [RunStats] counts, and the [RunPlaylist] rows it wrote, in order.
//
// All persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
