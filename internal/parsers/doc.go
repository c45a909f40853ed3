// package parsers builds playlists from declarative rules
//
// A playlist configuration is a YAML mapping from parser name to parser options. Each name is
// resolved in a [Registry] to either a tag classifier, which groups tracks into one playlist per
// configured tag, or the combiner, which builds playlists from selector expressions over the
// playlists the classifiers produced.
//
//	GenreTagParser:
//	  name: Genres
//	  playlists:
//	    - House
//	    - Techno
//	    - [Dubstep, Riddim]
//	    - Bass/Jungle
//	  pure_genre_playlists: [Techno]
//	  remainder: folder
//	Combiner:
//	  playlists:
//	    - "{House} & [120-130]"
package parsers
