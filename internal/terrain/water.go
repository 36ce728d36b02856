package terrain

import "math"

// islandShapeRadius evaluates the radial island-shape function at polar
// angle theta and radius r (both already normalized to the unit disc) per
// spec §4.4:
//
//	radius = baseRadius
//	       + a*sin(start + bumps*theta + cos((bumps+2)*theta))
//	       + b*sin(0.7*start + (bumps+3)*theta)
//	       + c*(2*fBm(warped(theta,r)) - 1)
func islandShapeRadius(theta, r float64, controls Controls, bumps int, start float64, seed uint32) float64 {
	t := (40 - controls.WaterLevel) / 80 // smaller WaterLevel -> larger t -> more land
	baseRadius := lerp(0.6, 1.3, clamp(t, 0, 1))

	roughness := controls.WaterRoughness / 100
	a := roughness * 0.15
	b := roughness * 0.08
	c := clamp(controls.WaterNoiseStrength, 0, 1) * 0.3

	bf := float64(bumps)
	term1 := a * math.Sin(start+bf*theta+math.Cos((bf+2)*theta))
	term2 := b * math.Sin(0.7*start+(bf+3)*theta)

	wx, wy := DomainWarp(theta, r, seed, controls.WaterNoiseOctaves, controls.WaterWarpScale, controls.WaterWarpStrength)
	noiseVal := FBm(wx*controls.WaterNoiseScale, wy*controls.WaterNoiseScale, seed, controls.WaterNoiseOctaves)
	term3 := c * (2*noiseVal - 1)

	return baseRadius + term1 + term2 + term3
}

// isLandSite decides land/water for a single site position per the
// island-shape predicate: strictly inside the map rectangle and inside the
// warped island shape.
func isLandSite(p Vec2, cfg Config, controls Controls, bumps int, start float64) bool {
	if p.X <= 0 || p.X >= float64(cfg.Width) || p.Y <= 0 || p.Y >= float64(cfg.Height) {
		return false
	}
	cx, cy := float64(cfg.Width)/2, float64(cfg.Height)/2
	halfExtent := math.Min(cx, cy)
	nx := (p.X - cx) / halfExtent
	ny := (p.Y - cy) / halfExtent

	theta := math.Atan2(ny, nx)
	r := math.Sqrt(nx*nx + ny*ny)

	radius := islandShapeRadius(theta, r, controls, bumps, start, controls.Seed)

	warpedX, warpedY := DomainWarp(nx, ny, controls.Seed^0xA5A5A5A5, controls.WaterNoiseOctaves, controls.WaterWarpScale, controls.WaterWarpStrength)
	warpedLen := math.Sqrt(warpedX*warpedX + warpedY*warpedY)

	return warpedLen < radius
}

// ClassifyWater runs C4: land/water predicate, ocean flood fill, and coast
// BFS distance.
func ClassifyWater(mesh *MeshGraph, cfg Config, controls Controls) *WaterState {
	shapeRng := Substream(controls.Seed, "water-shape")
	bumps := 3 + shapeRng.Int(4) // integer sampled from the RNG, per spec
	start := shapeRng.Range(0, 2*math.Pi)

	n := len(mesh.Faces)
	state := &WaterState{
		IsLand:       make([]bool, n),
		OceanWater:   make([]bool, n),
		LandDistance: make([]int32, n),
	}
	for i := range state.LandDistance {
		state.LandDistance[i] = -1
	}

	for _, face := range mesh.Faces {
		land := isLandSite(face.Point, cfg, controls, bumps, start)
		state.IsLand[face.Index] = land
		if land {
			state.LandFaces = append(state.LandFaces, face.Index)
			state.HasLand = true
		} else {
			state.HasWater = true
		}
	}
	// LandFaces is already ascending: mesh.Faces is built in ascending
	// FaceId order by BuildMesh.

	touchesBoundary := func(f FaceId) bool {
		minP, maxP := FaceAABB(mesh, f)
		return minP.X <= 0 || minP.Y <= 0 || maxP.X >= float64(cfg.Width) || maxP.Y >= float64(cfg.Height)
	}

	var floodQueue []FaceId
	for _, face := range mesh.Faces {
		if !state.IsLand[face.Index] && touchesBoundary(face.Index) && !state.OceanWater[face.Index] {
			state.OceanWater[face.Index] = true
			floodQueue = append(floodQueue, face.Index)
		}
	}
	for len(floodQueue) > 0 {
		f := floodQueue[0]
		floodQueue = floodQueue[1:]
		for _, nb := range mesh.Faces[f].AdjacentFaces {
			if !state.IsLand[nb] && !state.OceanWater[nb] {
				state.OceanWater[nb] = true
				floodQueue = append(floodQueue, nb)
			}
		}
	}

	// coast distance: BFS from the first land faces that have a water
	// neighbor (the shore), over land-face adjacency only.
	dist := make([]int32, n)
	for i := range dist {
		dist[i] = -1
	}
	var bfsQueue []FaceId
	for _, fid := range state.LandFaces {
		isShore := false
		for _, nb := range mesh.Faces[fid].AdjacentFaces {
			if !state.IsLand[nb] {
				isShore = true
				break
			}
		}
		if isShore {
			dist[fid] = 0
			bfsQueue = append(bfsQueue, fid)
		}
	}
	for len(bfsQueue) > 0 {
		f := bfsQueue[0]
		bfsQueue = bfsQueue[1:]
		for _, nb := range mesh.Faces[f].AdjacentFaces {
			if state.IsLand[nb] && dist[nb] == -1 {
				dist[nb] = dist[f] + 1
				bfsQueue = append(bfsQueue, nb)
			}
		}
	}
	state.LandDistance = dist

	return state
}
