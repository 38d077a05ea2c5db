package repositories

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"vidtube/internal/models"
)

// mongoPipeline builds aggregation pipelines stage by stage in the order the
// stages are appended.
type mongoPipeline struct {
	stages mongo.Pipeline
}

func newPipeline() *mongoPipeline {
	return &mongoPipeline{}
}

func (p *mongoPipeline) stage(name string, value interface{}) *mongoPipeline {
	p.stages = append(p.stages, bson.D{{Key: name, Value: value}})
	return p
}

func (p *mongoPipeline) Match(filter bson.M) *mongoPipeline {
	return p.stage("$match", filter)
}

// Lookup is an equality left-outer join.
func (p *mongoPipeline) Lookup(from, localField, foreignField, as string) *mongoPipeline {
	return p.stage("$lookup", bson.M{
		"from":         from,
		"localField":   localField,
		"foreignField": foreignField,
		"as":           as,
	})
}

// LookupPipeline is a correlated left-outer join running sub for every input
// document with let bound as variables.
func (p *mongoPipeline) LookupPipeline(from string, let bson.M, sub *mongoPipeline, as string) *mongoPipeline {
	return p.stage("$lookup", bson.M{
		"from":     from,
		"let":      let,
		"pipeline": sub.Build(),
		"as":       as,
	})
}

func (p *mongoPipeline) AddFields(fields bson.M) *mongoPipeline {
	return p.stage("$addFields", fields)
}

func (p *mongoPipeline) Sort(keys bson.D) *mongoPipeline {
	return p.stage("$sort", keys)
}

func (p *mongoPipeline) Project(fields bson.M) *mongoPipeline {
	return p.stage("$project", fields)
}

func (p *mongoPipeline) Unwind(path string) *mongoPipeline {
	return p.stage("$unwind", "$"+path)
}

func (p *mongoPipeline) ReplaceRoot(path string) *mongoPipeline {
	return p.stage("$replaceRoot", bson.M{"newRoot": "$" + path})
}

func (p *mongoPipeline) Limit(n int) *mongoPipeline {
	return p.stage("$limit", n)
}

func (p *mongoPipeline) Group(group bson.M) *mongoPipeline {
	return p.stage("$group", group)
}

// Paginate ends the pipeline with a facet producing the total count under
// "metadata" and the requested page under "docs". Stages in docsTail run on
// the page only.
func (p *mongoPipeline) Paginate(page models.Pagination, docsTail *mongoPipeline) *mongoPipeline {
	docs := mongo.Pipeline{
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: page.Limit}},
	}
	if docsTail != nil {
		docs = append(docs, docsTail.Build()...)
	}
	return p.stage("$facet", bson.M{
		"metadata": mongo.Pipeline{{{Key: "$count", Value: "total"}}},
		"docs":     docs,
	})
}

// Append adds every stage of other.
func (p *mongoPipeline) Append(other *mongoPipeline) *mongoPipeline {
	p.stages = append(p.stages, other.Build()...)
	return p
}

func (p *mongoPipeline) Build() mongo.Pipeline {
	return p.stages
}

// StageNames lists the operator of each stage in order.
func (p *mongoPipeline) StageNames() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s[0].Key)
	}
	return names
}

// facetPage decodes the output of Paginate.
type facetPage[T any] struct {
	Metadata []struct {
		Total int64 `bson:"total"`
	} `bson:"metadata"`
	Docs []T `bson:"docs"`
}

func (f facetPage[T]) total() int64 {
	if len(f.Metadata) == 0 {
		return 0
	}
	return f.Metadata[0].Total
}

// first returns the first element of an array field, or nothing.
func first(field string) bson.M {
	return bson.M{"$arrayElemAt": bson.A{"$" + field, 0}}
}

// ownerProfile joins the user referenced by localField into as, keeping only
// the public profile.
func ownerProfile(localField, as string) *mongoPipeline {
	profile := newPipeline().
		Match(bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ownerId"}}}).
		Project(bson.M{"username": 1, "fullName": 1, "avatar.url": 1})
	return newPipeline().
		LookupPipeline("users", bson.M{"ownerId": "$" + localField}, profile, as).
		AddFields(bson.M{as: first(as)})
}

// likeState adds likesCount and isLiked from the likes pointing at the
// current document through likeField.
func likeState(likeField, viewerID string) *mongoPipeline {
	return newPipeline().
		Lookup("likes", "_id", likeField, "likes").
		AddFields(bson.M{
			"likesCount": bson.M{"$size": "$likes"},
			"isLiked":    bson.M{"$in": bson.A{viewerID, "$likes.likedBy"}},
		}).
		Project(bson.M{"likes": 0})
}

// videoCardProjection keeps the fields of models.VideoCard.
var videoCardProjection = bson.M{
	"videoFile.url": 1,
	"thumbnail.url": 1,
	"title":         1,
	"description":   1,
	"duration":      1,
	"views":         1,
	"isPublished":   1,
	"createdAt":     1,
	"owner":         1,
}
