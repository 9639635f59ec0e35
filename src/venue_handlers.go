package main

import (
	"net/http"

	"ticketworld/src/db"
	"ticketworld/src/models"
	"ticketworld/src/types"

	"github.com/gin-gonic/gin"
)

func venueHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/venues", func(ctx *gin.Context) {
			var venues []models.Venue
			db := db.GetDb()
			if err := db.
				Order("name asc").
				Find(&venues).
				Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": venues, "count": len(venues)})
		}).
		GET("/venues/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var venue models.Venue
			db := db.GetDb()
			if err := db.
				Preload("Events").
				Where(&models.Venue{ID: params.ID}).
				First(&venue).
				Error; err != nil {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "venue not found"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": venue})
		}).
		POST("/venues", func(ctx *gin.Context) {
			var body types.CreateVenueRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			venue := models.Venue{
				Name:     body.Name,
				Address:  body.Address,
				Capacity: body.Capacity,
			}
			db := db.GetDb()
			if err := db.Create(&venue).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": venue})
		})
	return g
}
