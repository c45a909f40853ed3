// Package collection models a Rekordbox XML export: a flat track collection plus a playlist tree that references it.
//
// # Document
//
// [Load] and [Decode] read a DJ_PLAYLISTS document into a [Document]. Every TRACK attribute and child element is
// kept verbatim so that [Document.Save] writes back what it read, plus whatever playlists were upserted in between.
//
// Attributes the playlist engine consumes are typed on read (see [Track.Number]). A value that cannot be coerced
// produces a [MalformedAttributeError]; the load continues and the track is treated as missing that attribute.
//
// # Playlist tree
//
// The tree is owned by the Document. Nodes are either folders ([KindFolder]) or leaves ([KindLeaf]); a leaf's
// membership is an [OrderedSet] of track IDs. Mutation goes through [Document.UpsertPlaylist], which addresses
// nodes by ancestor path and rejects references to tracks outside the collection.
//
// # Performable tracks
//
// Only tracks with a Location attribute can appear in generated playlists. [Document.Domain] and
// [Document.FindTracksByTag] never return library-only items.
package collection
