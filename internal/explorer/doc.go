// Package explorer serves the GraphiQL page for the /graphql endpoint.
//
// The default page is gqlgen's GraphiQL playground. A directory on disk
// can replace it so a custom page can be served without a rebuild. When
// that directory lacks the asset the handler answers 404; it never panics.
package explorer
