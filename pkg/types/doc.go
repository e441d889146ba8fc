// Package types defines the entity types, JSON field codecs, world
// parameters, snapshot structure, and standard errors for worldstore.
//
// Entities mirror the rows of the world schema. JSON columns are carried as
// raw text (the *JSON fields) and decoded on demand through accessor pairs
// such as Character.Skills and Character.SetSkills.
package types
